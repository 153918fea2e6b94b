package lockdown

import (
	"context"
	"regexp"
	"testing"
	"time"

	"lockbot/internal/scheduler"
)

var dailyCronRE = regexp.MustCompile(`^\d{1,2} \d{1,2} \* \* \*$`)

func (f *fixture) periodicJobs() []scheduler.Job {
	var out []scheduler.Job
	for _, j := range f.sched.Jobs() {
		if j.Name == JobCheckPosts && j.Source == scheduler.SourceScheduled {
			out = append(out, j)
		}
	}
	return out
}

func TestEnsureInstalledFreshInstall(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()

	if err := f.svc.EnsureInstalled(ctx, "1.0.0"); err != nil {
		t.Fatalf("EnsureInstalled: %v", err)
	}

	cronExpr, ok, err := f.store.Get(ctx, cronKey)
	if err != nil || !ok {
		t.Fatalf("cron not persisted: %q %v %v", cronExpr, ok, err)
	}
	if !dailyCronRE.MatchString(cronExpr) {
		t.Fatalf("persisted cron %q is not a randomized daily expression", cronExpr)
	}
	if v, _, _ := f.store.Get(ctx, versionKey); v != "1.0.0" {
		t.Fatalf("persisted version = %q", v)
	}
	if jobs := f.periodicJobs(); len(jobs) != 1 || jobs[0].Cron != cronExpr {
		t.Fatalf("periodic jobs = %v, want one on %q", jobs, cronExpr)
	}
}

func TestEnsureInstalledSameVersionKeepsSchedule(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()

	if err := f.svc.EnsureInstalled(ctx, "1.0.0"); err != nil {
		t.Fatalf("install: %v", err)
	}
	before, _, _ := f.store.Get(ctx, cronKey)

	// A pending adhoc pass must survive a plain restart.
	if _, err := f.sched.Schedule(scheduler.Job{
		Name:   JobCheckPosts,
		Source: scheduler.SourceAdhoc,
		RunAt:  t0.Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed adhoc job: %v", err)
	}
	if err := f.svc.queue.Enqueue(ctx, "p1", t0); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := f.svc.EnsureInstalled(ctx, "1.0.0"); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if after, _, _ := f.store.Get(ctx, cronKey); after != before {
		t.Fatalf("cron changed on same-version startup: %q -> %q", before, after)
	}
	if jobs := f.adhocJobs(); len(jobs) != 1 {
		t.Fatalf("adhoc jobs = %v, want the pending pass kept", jobs)
	}
}

func TestEnsureInstalledUpgradeResets(t *testing.T) {
	f := newFixture(t, defaultSettings())
	ctx := context.Background()

	if err := f.store.Set(ctx, versionKey, "0.9.0"); err != nil {
		t.Fatalf("seed version: %v", err)
	}
	f.setCron(t, "5 4 * * *")
	if _, err := f.sched.Schedule(scheduler.Job{
		Name:   JobCheckPosts,
		Source: scheduler.SourceAdhoc,
		RunAt:  t0.Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed adhoc job: %v", err)
	}

	if err := f.svc.EnsureInstalled(ctx, "1.0.0"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	if v, _, _ := f.store.Get(ctx, versionKey); v != "1.0.0" {
		t.Fatalf("version after upgrade = %q", v)
	}
	cronExpr, _, _ := f.store.Get(ctx, cronKey)
	if !dailyCronRE.MatchString(cronExpr) {
		t.Fatalf("cron after upgrade = %q", cronExpr)
	}
	// The upgrade wipes every job before re-registering the periodic one.
	if jobs := f.adhocJobs(); len(jobs) != 0 {
		t.Fatalf("adhoc jobs survived an upgrade: %v", jobs)
	}
	if jobs := f.periodicJobs(); len(jobs) != 1 {
		t.Fatalf("periodic jobs = %v, want exactly one", jobs)
	}
}
