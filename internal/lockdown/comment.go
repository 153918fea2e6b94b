package lockdown

import (
	"context"
	"errors"
	"fmt"

	"lockbot/internal/platform"
	"lockbot/pkg/logx"
)

// HandleCommentCreated locks the parent post of a late comment. This
// covers posts older than the backlog scan ever saw: the post was never
// queued, but a comment on it proves it is active past its deadline.
func (s *Service) HandleCommentCreated(ctx context.Context, postID string) error {
	set, err := s.settings()
	if err != nil {
		return err
	}
	if !set.LockOnComment {
		return nil
	}

	now := s.now()
	threshold, err := s.lockCutoff(now, set)
	if err != nil {
		return err
	}

	post, err := s.platform.Post(ctx, postID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			s.log.Debug("comment handler: parent post not found", logx.String("post", postID))
			return nil
		}
		return fmt.Errorf("fetch post %s: %w", postID, err)
	}

	if post.CreatedAt.After(threshold) {
		// Not past the lock deadline yet; the queue covers it.
		return nil
	}

	reason, err := s.exemptionFor(ctx, set, post, newPassCache())
	if err != nil {
		return fmt.Errorf("evaluate post %s: %w", postID, err)
	}
	if reason != "" {
		s.log.Debug("comment handler: post exempt",
			logx.String("post", postID),
			logx.String("reason", reason))
		return nil
	}

	s.log.Info("comment handler: locking post created before the lock threshold",
		logx.String("post", postID))
	if err := s.platform.Lock(ctx, postID); err != nil {
		s.metrics.IncLockFailures()
		return fmt.Errorf("lock post %s: %w", postID, err)
	}
	s.metrics.AddLocked(1)
	return nil
}
