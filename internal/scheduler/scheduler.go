// Package scheduler is the job-scheduling collaborator: named jobs with
// either a cron cadence or a one-shot run time, a listable registry, and
// cancellation by ID or by (name, source).
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"lockbot/pkg/logx"
)

var errNotStarted = errors.New("scheduler not started")

// standardParser accepts 5-field cron expressions plus descriptors,
// matching the persisted "M H * * *" periodic schedule.
var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRun computes the first fire time of a cron expression strictly
// after the given instant.
func NextRun(expr string, after time.Time) (time.Time, error) {
	sched, err := standardParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	c   *cron.Cron

	handlers map[string]HandlerFunc
	jobs     map[string]*entry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(log logx.Logger) *Service {
	return &Service{
		log:      log,
		handlers: map[string]HandlerFunc{},
		jobs:     map[string]*entry{},
	}
}

// RegisterHandler binds a job name to its handler. Must be called before
// jobs of that name fire; re-registering replaces the handler.
func (s *Service) RegisterHandler(name string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.c = cron.New(cron.WithParser(standardParser))
	s.c.Start()
	s.log.Info("scheduler started")
}

// Stop cancels every pending job and waits for in-flight invocations.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	for id, e := range s.jobs {
		if e.timer != nil {
			_ = e.timer.Stop()
		}
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Schedule registers a job and returns its ID. One-shot jobs whose RunAt
// already passed fire immediately.
func (s *Service) Schedule(job Job) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return "", errNotStarted
	}

	job.ID = uuid.NewString()
	e := &entry{job: job}

	if job.Cron != "" {
		entryID, err := s.c.AddFunc(job.Cron, func() { s.fire(job.ID, false) })
		if err != nil {
			return "", err
		}
		e.entryID = entryID
	} else {
		delay := time.Until(job.RunAt)
		if delay < 0 {
			delay = 0
		}
		e.timer = time.AfterFunc(delay, func() { s.fire(job.ID, true) })
	}

	s.jobs[job.ID] = e
	s.log.Debug("job scheduled",
		logx.String("job", job.Name),
		logx.String("source", job.Source),
		logx.String("id", job.ID))
	return job.ID, nil
}

// Jobs returns a snapshot of currently scheduled jobs.
func (s *Service) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, e.job)
	}
	return out
}

// Cancel removes a job by ID. Unknown IDs are a no-op.
func (s *Service) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

// CancelByName removes every job matching name and, when source is
// non-empty, that source tag. Returns the number cancelled. This is the
// single lookup-then-cancel routine used by reinstall and by
// settings-driven rescheduling.
func (s *Service) CancelByName(name, source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.jobs {
		if e.job.Name != name {
			continue
		}
		if source != "" && e.job.Source != source {
			continue
		}
		s.cancelLocked(id)
		n++
	}
	return n
}

// CancelAll clears the whole registry. Used by install/upgrade before
// the periodic schedule is regenerated.
func (s *Service) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.jobs {
		s.cancelLocked(id)
		n++
	}
	return n
}

func (s *Service) cancelLocked(id string) {
	e, ok := s.jobs[id]
	if !ok {
		return
	}
	if e.timer != nil {
		_ = e.timer.Stop()
	} else if s.c != nil {
		s.c.Remove(e.entryID)
	}
	delete(s.jobs, id)
}

// fire dispatches one invocation. One-shot jobs are deregistered before
// the handler runs, so a pass in flight never counts as "scheduled" when
// the reconciler checks the job list.
func (s *Service) fire(id string, once bool) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok || s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	job := e.job
	handler := s.handlers[job.Name]
	if once {
		delete(s.jobs, id)
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if handler == nil {
			s.log.Warn("no handler registered for job", logx.String("job", job.Name))
			return
		}
		start := time.Now()
		// Invocations run to completion; there is no cancellation
		// primitive for an in-flight pass.
		err := handler(context.Background(), job)
		if err != nil {
			s.log.Warn("job failed",
				logx.String("job", job.Name),
				logx.String("source", job.Source),
				logx.Duration("took", time.Since(start)),
				logx.Err(err))
			return
		}
		s.log.Debug("job ok",
			logx.String("job", job.Name),
			logx.String("source", job.Source),
			logx.Duration("took", time.Since(start)))
	}()
}
