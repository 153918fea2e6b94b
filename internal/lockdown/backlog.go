package lockdown

import (
	"context"
	"fmt"
	"strconv"

	"lockbot/internal/scheduler"
	"lockbot/internal/storage"
	"lockbot/pkg/logx"
)

// HandleSettingsChange is the reschedule job fired shortly after a
// config reload. Any pending adhoc pass was computed against the old
// delay, so it is cancelled before reconciling; if historical seeding
// was just enabled, the one-time backlog scan runs here.
func (s *Service) HandleSettingsChange(ctx context.Context) error {
	s.log.Info("settings update: requeuing jobs if needed")

	set, err := s.settings()
	if err != nil {
		return err
	}

	if n := s.sched.CancelByName(JobCheckPosts, scheduler.SourceAdhoc); n > 0 {
		s.log.Info("settings update: cancelled ad-hoc jobs", logx.Int("count", n))
	}

	if set.HandleHistoricalPosts {
		if err := s.seedBacklog(ctx); err != nil {
			return err
		}
	}

	return s.reconcile(ctx, set)
}

// seedBacklog enqueues the community's most recent unlocked posts once.
// The completion marker makes the scan run-once: re-enabling the setting
// or repeated settings changes never repeat it.
func (s *Service) seedBacklog(ctx context.Context) error {
	if _, seeded, err := s.store.Get(ctx, backlogSeededKey); err != nil {
		return fmt.Errorf("read backlog marker: %w", err)
	} else if seeded {
		return nil
	}

	s.log.Info("settings update: historical posts enabled, queueing recent posts",
		logx.Int("limit", backlogFetchLimit))

	posts, err := s.platform.RecentPosts(ctx, backlogFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch recent posts: %w", err)
	}

	members := make([]storage.ZMember, 0, len(posts))
	for _, p := range posts {
		if p.Locked {
			continue
		}
		members = append(members, storage.ZMember{Member: p.ID, Score: p.CreatedAt.UnixMilli()})
	}
	if err := s.queue.EnqueueAll(ctx, members); err != nil {
		return fmt.Errorf("enqueue backlog: %w", err)
	}

	marker := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.store.Set(ctx, backlogSeededKey, marker); err != nil {
		return fmt.Errorf("persist backlog marker: %w", err)
	}

	s.log.Info("settings update: backlog queued", logx.Int("count", len(members)))
	return nil
}
