package lockdown

import (
	"context"
	"fmt"
	"math/rand"

	"lockbot/internal/scheduler"
	"lockbot/pkg/logx"
)

// EnsureInstalled runs the install/upgrade sequence at daemon startup.
//
// On a fresh install or a version change it applies reinstall semantics:
// cancel every scheduled job, pick a fresh randomized daily cron, and
// persist it. The randomized minute/hour keeps the periodic passes of
// independent installations from arriving synchronized.
//
// The scheduler's registry is in-process, so the periodic job itself is
// (re)registered on every startup from the persisted cron expression.
func (s *Service) EnsureInstalled(ctx context.Context, version string) error {
	storedVersion, _, err := s.store.Get(ctx, versionKey)
	if err != nil {
		return fmt.Errorf("read installed version: %w", err)
	}
	cronExpr, haveCron, err := s.store.Get(ctx, cronKey)
	if err != nil {
		return fmt.Errorf("read periodic cron: %w", err)
	}

	if storedVersion != version || !haveCron || cronExpr == "" {
		if n := s.sched.CancelAll(); n > 0 {
			s.log.Info("install: cancelled existing scheduled jobs", logx.Int("count", n))
		}

		cronExpr = fmt.Sprintf("%d %d * * *", rand.Intn(60), rand.Intn(24))
		if err := s.store.Set(ctx, cronKey, cronExpr); err != nil {
			return fmt.Errorf("persist periodic cron: %w", err)
		}
		if err := s.store.Set(ctx, versionKey, version); err != nil {
			return fmt.Errorf("persist installed version: %w", err)
		}
		s.log.Info("install: new periodic schedule chosen",
			logx.String("version", version),
			logx.String("cron", cronExpr))
	}

	if _, err := s.sched.Schedule(scheduler.Job{
		Name:   JobCheckPosts,
		Source: scheduler.SourceScheduled,
		Cron:   cronExpr,
	}); err != nil {
		return fmt.Errorf("schedule periodic pass: %w", err)
	}

	if next, err := scheduler.NextRun(cronExpr, s.now()); err == nil {
		s.log.Info("install: periodic pass registered", logx.Time("next_run", next))
	}

	return s.Reconcile(ctx)
}
