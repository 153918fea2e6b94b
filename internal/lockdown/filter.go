package lockdown

import (
	"context"
	"errors"
	"strings"

	"lockbot/internal/platform"
	"lockbot/pkg/logx"
)

// passCache holds the batched lookups shared by every post in one
// processing pass: the moderator list is fetched at most once, and each
// distinct author's flair at most once. It is scoped to a single
// invocation and never persisted.
type passCache struct {
	mods       map[string]bool
	modsLoaded bool

	flairs map[string]*platform.UserFlair
	tried  map[string]bool
}

func newPassCache() *passCache {
	return &passCache{
		flairs: map[string]*platform.UserFlair{},
		tried:  map[string]bool{},
	}
}

func (s *Service) moderators(ctx context.Context, c *passCache) (map[string]bool, error) {
	if c.modsLoaded {
		return c.mods, nil
	}
	names, err := s.platform.Moderators(ctx)
	if err != nil {
		return nil, err
	}
	c.mods = make(map[string]bool, len(names))
	for _, n := range names {
		c.mods[strings.ToLower(n)] = true
	}
	c.modsLoaded = true
	return c.mods, nil
}

// authorFlair resolves a user's flair with per-pass de-duplication.
// Lookup failures (deleted/suspended accounts) resolve to nil flair:
// the post stays eligible rather than being skipped on error.
func (s *Service) authorFlair(ctx context.Context, c *passCache, username string) *platform.UserFlair {
	key := strings.ToLower(username)
	if c.tried[key] {
		return c.flairs[key]
	}
	c.tried[key] = true

	flair, err := s.platform.UserFlair(ctx, username)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			s.log.Warn("author flair lookup failed; treating as no flair",
				logx.String("user", username), logx.Err(err))
		}
		return nil
	}
	c.flairs[key] = flair
	return flair
}

// exemptionFor runs the filter pipeline over one post. It returns the
// name of the first check that trips, or "" when the post survives and
// is eligible for locking. Check order is cheapest-first; the semantics
// do not depend on it.
func (s *Service) exemptionFor(ctx context.Context, set Settings, post *platform.Post, c *passCache) (string, error) {
	// 1. Never re-process locked posts; pinned posts stay open.
	if post.Locked || post.Stickied {
		return "already locked or pinned", nil
	}

	// 2. NSFW-only mode.
	if set.NSFWOnly && !post.NSFW {
		return "not nsfw", nil
	}

	// 3. Moderators and the automated moderation account.
	if set.IgnoreModerators {
		if post.AuthorName == platform.AutoModeratorName {
			return "automoderator", nil
		}
		mods, err := s.moderators(ctx, c)
		if err != nil {
			return "", err
		}
		if mods[strings.ToLower(post.AuthorName)] {
			return "moderator", nil
		}
	}

	// 4. Named ignored users.
	if containsFold(set.IgnoreUsers, post.AuthorName) {
		return "ignored user", nil
	}

	// 5. Post flair text / CSS class / template.
	if f := post.Flair; f != nil {
		if containsFold(set.IgnorePostFlairText, f.Text) {
			return "post flair text", nil
		}
		if containsFold(set.IgnorePostFlairCSS, f.CSSClass) {
			return "post flair css class", nil
		}
		if containsFold(set.IgnorePostFlairTemplates, f.TemplateID) {
			return "post flair template", nil
		}
	}

	// 6. Author flair text / CSS class. Skipped entirely when neither
	// list is configured, so no author lookups happen.
	if len(set.IgnoreUserFlairText) > 0 || len(set.IgnoreUserFlairCSS) > 0 {
		if flair := s.authorFlair(ctx, c, post.AuthorName); flair != nil {
			if containsFold(set.IgnoreUserFlairText, flair.Text) {
				return "user flair text", nil
			}
			if containsFold(set.IgnoreUserFlairCSS, flair.CSSClass) {
				return "user flair css class", nil
			}
		}
	}

	return "", nil
}
