package lockdown

import (
	"context"
	"testing"
	"time"

	"lockbot/internal/metrics"
	"lockbot/internal/platform"
	"lockbot/internal/scheduler"
	"lockbot/internal/storage"
	"lockbot/internal/timeunit"
	"lockbot/pkg/logx"
)

// t0 is the pinned "now" for every lockdown test. It sits in the real
// future so one-shot timers armed while a test runs never fire.
var t0 = time.Date(time.Now().Year()+1, time.July, 1, 0, 0, 0, 0, time.UTC)

func defaultSettings() Settings {
	return Settings{
		Delay:            1,
		DelayUnit:        timeunit.Days,
		IgnoreModerators: true,
	}
}

type fixture struct {
	svc   *Service
	store storage.Store
	pf    *platform.Memory
	sched *scheduler.Service
	met   *metrics.Metrics

	set Settings
}

func newFixture(t *testing.T, set Settings) *fixture {
	t.Helper()
	f := &fixture{
		store: storage.NewMemory(),
		pf:    platform.NewMemory(),
		sched: scheduler.New(logx.Nop()),
		met:   metrics.New(),
		set:   set,
	}
	f.sched.Start()
	t.Cleanup(f.sched.Stop)

	f.svc = NewService(logx.Nop(), f.store, f.pf, f.sched, f.met,
		func() (Settings, error) { return f.set, nil })
	f.svc.now = func() time.Time { return t0 }
	return f
}

// duePost seeds a post created one step older than the default one-day
// delay and enqueues it, so it is due at t0.
func (f *fixture) duePost(t *testing.T, id, author string, mut func(*platform.Post)) *platform.Post {
	t.Helper()
	p := &platform.Post{
		ID:         id,
		AuthorName: author,
		CreatedAt:  t0.AddDate(0, 0, -2),
	}
	if mut != nil {
		mut(p)
	}
	f.pf.AddPost(p)
	if err := f.svc.queue.Enqueue(context.Background(), p.ID, p.CreatedAt); err != nil {
		t.Fatalf("enqueue %s: %v", id, err)
	}
	return p
}

func (f *fixture) adhocJobs() []scheduler.Job {
	var out []scheduler.Job
	for _, j := range f.sched.Jobs() {
		if j.Name == JobCheckPosts && j.Source == scheduler.SourceAdhoc {
			out = append(out, j)
		}
	}
	return out
}
