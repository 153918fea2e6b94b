package lockdown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockbot/internal/platform"
	"lockbot/internal/timeunit"
	"lockbot/pkg/logx"
)

// CheckDuePosts is the processing pass behind the due-check job, both
// periodic and adhoc fires. It drains up to batchLimit due posts, runs
// the filter pipeline, locks the survivors, removes every fetched entry
// from the queue, and reconciles the next run.
func (s *Service) CheckDuePosts(ctx context.Context, source string) error {
	s.log.Info("post checker: running pass", logx.String("source", source))

	set, err := s.settings()
	if err != nil {
		return err
	}
	now := s.now()

	cutoff, err := s.lockCutoff(now, set)
	if err != nil {
		return err
	}

	due, err := s.queue.Due(ctx, cutoff, batchLimit)
	if err != nil {
		return fmt.Errorf("fetch due posts: %w", err)
	}
	if len(due) == 0 {
		s.log.Debug("post checker: no posts are due a check")
		return s.reconcile(ctx, set)
	}
	s.metrics.IncPasses()

	// Fetch live state. Posts deleted since enqueue are dropped; their
	// queue entries are still removed below.
	fetched := make([]string, 0, len(due))
	candidates := make([]*platform.Post, 0, len(due))
	for _, m := range due {
		fetched = append(fetched, m.Member)
		post, err := s.platform.Post(ctx, m.Member)
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				s.log.Debug("post checker: post no longer exists", logx.String("post", m.Member))
				continue
			}
			return fmt.Errorf("fetch post %s: %w", m.Member, err)
		}
		candidates = append(candidates, post)
	}
	s.log.Info("post checker: posts need checking", logx.Int("count", len(candidates)))

	cache := newPassCache()
	exempted := 0
	toLock := make([]*platform.Post, 0, len(candidates))
	for _, post := range candidates {
		reason, err := s.exemptionFor(ctx, set, post, cache)
		if err != nil {
			return fmt.Errorf("evaluate post %s: %w", post.ID, err)
		}
		if reason != "" {
			exempted++
			s.log.Debug("post checker: post exempt",
				logx.String("post", post.ID),
				logx.String("reason", reason))
			continue
		}
		toLock = append(toLock, post)
	}

	locked := 0
	for _, post := range toLock {
		if err := s.platform.Lock(ctx, post.ID); err != nil {
			// No in-pass retry; the entry is still removed below, so a
			// transient platform failure needs ops follow-up rather
			// than an automatic requeue.
			s.metrics.IncLockFailures()
			s.log.Error("post checker: lock failed",
				logx.String("post", post.ID),
				logx.String("stage", "lock"),
				logx.Err(err))
			continue
		}
		locked++

		if set.LockedFlairTemplateID != "" {
			if err := s.platform.SetPostFlair(ctx, post.ID, set.LockedFlairTemplateID); err != nil {
				// Best effort: the post stays locked.
				s.log.Warn("post checker: flair apply failed after lock",
					logx.String("post", post.ID),
					logx.String("stage", "flair"),
					logx.Err(err))
			}
		}
	}

	// Every originally fetched entry leaves the queue, acted-upon and
	// exempted alike: an exemption is a terminal decision.
	if err := s.queue.Remove(ctx, fetched); err != nil {
		return fmt.Errorf("remove processed posts: %w", err)
	}

	s.metrics.AddLocked(locked)
	s.metrics.AddExempted(exempted)
	s.log.Info("post checker: pass complete",
		logx.Int("due", len(due)),
		logx.Int("locked", locked),
		logx.Int("exempted", exempted))

	return s.reconcile(ctx, set)
}

// lockCutoff computes the newest creation time that is already due:
// now minus the configured delay.
func (s *Service) lockCutoff(now time.Time, set Settings) (time.Time, error) {
	cutoff, err := timeunit.LockTime(now, -set.Delay, set.DelayUnit)
	if err != nil {
		return time.Time{}, fmt.Errorf("compute lock cutoff: %w", err)
	}
	return cutoff, nil
}
