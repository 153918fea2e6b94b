// Package platform talks to the content platform hosting the managed
// community: fetching posts and user flair, listing moderators, locking
// posts and applying flair templates.
//
// The daemon manages a single community, so a Client is scoped to one
// community at construction.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a post or user cannot be resolved.
// Deleted and suspended accounts surface as ErrNotFound from UserFlair;
// callers treat that as "no flair", not as a failure.
var ErrNotFound = errors.New("platform: not found")

// AutoModeratorName is the platform's automated moderation account. It
// is exempt from locking whenever moderators are.
const AutoModeratorName = "AutoModerator"

type PostFlair struct {
	Text       string `json:"text"`
	CSSClass   string `json:"css_class"`
	TemplateID string `json:"template_id"`
}

type UserFlair struct {
	Text     string `json:"text"`
	CSSClass string `json:"css_class"`
}

type Post struct {
	ID         string     `json:"id"`
	AuthorName string     `json:"author"`
	CreatedAt  time.Time  `json:"created_at"`
	Locked     bool       `json:"locked"`
	Stickied   bool       `json:"stickied"`
	NSFW       bool       `json:"nsfw"`
	Flair      *PostFlair `json:"flair,omitempty"`
}

// Client is the content-platform surface the lockdown service consumes.
// Every call is expected to fail fast; none of them block past the
// underlying HTTP timeout.
type Client interface {
	// Post fetches live post state by ID.
	Post(ctx context.Context, id string) (*Post, error)
	// Moderators lists the community's moderator usernames.
	Moderators(ctx context.Context) ([]string, error)
	// UserFlair fetches a user's flair in the community. Returns
	// ErrNotFound for deleted/suspended accounts, (nil, nil) for users
	// without flair.
	UserFlair(ctx context.Context, username string) (*UserFlair, error)
	// RecentPosts returns the community's newest posts, newest first,
	// capped at limit.
	RecentPosts(ctx context.Context, limit int) ([]*Post, error)
	// Lock locks a post against further comments.
	Lock(ctx context.Context, id string) error
	// SetPostFlair applies a flair template to a post.
	SetPostFlair(ctx context.Context, id, templateID string) error
}
