package lockdown

import (
	"context"
	"fmt"
	"time"

	"lockbot/internal/scheduler"
	"lockbot/internal/timeunit"
	"lockbot/pkg/logx"
)

// reconcile decides whether a one-shot adhoc pass is needed before the
// next periodic pass, and schedules it. It runs after every enqueue,
// after every processing pass, and after settings changes.
//
// Two concurrent reconciliations may both observe "no adhoc job" and
// both schedule one; that race is benign because a duplicate pass
// against an already-drained due range is a no-op, so no lock is taken
// across the check-then-schedule.
func (s *Service) reconcile(ctx context.Context, set Settings) error {
	earliest, err := s.queue.PeekEarliest(ctx)
	if err != nil {
		return fmt.Errorf("peek queue: %w", err)
	}
	if earliest == nil {
		// Nothing pending: an adhoc pass would be pure overhead, and
		// any already-scheduled one is stale.
		if n := s.sched.CancelByName(JobCheckPosts, scheduler.SourceAdhoc); n > 0 {
			s.log.Info("adhoc scheduler: cancelled stale ad-hoc jobs for empty queue", logx.Int("count", n))
		} else {
			s.log.Debug("adhoc scheduler: queue empty, no ad-hoc pass needed")
		}
		return nil
	}

	// At most one adhoc job may exist.
	for _, job := range s.sched.Jobs() {
		if job.Name == JobCheckPosts && job.Source == scheduler.SourceAdhoc {
			s.log.Debug("adhoc scheduler: ad-hoc pass already scheduled",
				logx.Time("run_at", job.RunAt))
			return nil
		}
	}

	now := s.now()

	due, err := timeunit.LockTime(time.UnixMilli(earliest.Score), set.Delay, set.DelayUnit)
	if err != nil {
		return fmt.Errorf("compute next lock time: %w", err)
	}
	nextLock := due
	if nextLock.Before(now) {
		nextLock = now
	}

	cronExpr, ok, err := s.store.Get(ctx, cronKey)
	if err != nil {
		return fmt.Errorf("read periodic cron: %w", err)
	}
	if !ok || cronExpr == "" {
		// Should be set at install/upgrade; skip this round and let the
		// next install pass restore it.
		s.log.Error("adhoc scheduler: reconciliation skipped", logx.Err(ErrCronMissing))
		return nil
	}

	nextPeriodic, err := scheduler.NextRun(cronExpr, now)
	if err != nil {
		s.log.Error("adhoc scheduler: persisted cron unparsable, reconciliation skipped",
			logx.String("cron", cronExpr), logx.Err(err))
		return nil
	}

	if nextLock.After(nextPeriodic) {
		s.log.Debug("adhoc scheduler: periodic pass arrives first, no ad-hoc pass needed",
			logx.Time("next_lock", nextLock),
			logx.Time("next_periodic", nextPeriodic))
		return nil
	}
	if nextPeriodic.Sub(nextLock) < coveredWindow {
		s.log.Debug("adhoc scheduler: periodic pass within covered window, no ad-hoc pass needed",
			logx.Time("next_lock", nextLock),
			logx.Time("next_periodic", nextPeriodic))
		return nil
	}

	runAt := nextLock.Add(adhocNudge)
	if runAt.Before(now) {
		runAt = now
	}
	if _, err := s.sched.Schedule(scheduler.Job{
		Name:   JobCheckPosts,
		Source: scheduler.SourceAdhoc,
		RunAt:  runAt,
	}); err != nil {
		return fmt.Errorf("schedule ad-hoc pass: %w", err)
	}
	s.metrics.IncAdhocScheduled()
	s.log.Info("adhoc scheduler: ad-hoc pass scheduled", logx.Time("run_at", runAt))
	return nil
}
