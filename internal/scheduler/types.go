package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Job sources. The due-check job runs under both: "scheduled" for the
// periodic daily pass, "adhoc" for opportunistic one-shot passes.
const (
	SourceScheduled = "scheduled"
	SourceAdhoc     = "adhoc"
)

// Job describes a scheduled invocation. Exactly one of Cron and RunAt is
// set: Cron for recurring jobs, RunAt for one-shots. One-shot jobs leave
// the job list the moment they fire.
type Job struct {
	ID     string
	Name   string
	Source string
	Cron   string
	RunAt  time.Time
}

// HandlerFunc runs one invocation of a named job. Invocations are
// independent units of work; the scheduler never serializes them.
type HandlerFunc func(ctx context.Context, job Job) error

type entry struct {
	job     Job
	entryID cron.EntryID // recurring jobs
	timer   *time.Timer  // one-shot jobs
}
