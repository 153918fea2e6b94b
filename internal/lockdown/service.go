package lockdown

import (
	"context"
	"errors"
	"time"

	"lockbot/internal/lockqueue"
	"lockbot/internal/metrics"
	"lockbot/internal/platform"
	"lockbot/internal/scheduler"
	"lockbot/internal/storage"
	"lockbot/pkg/logx"
)

// Job names known to the scheduler. The due-check job runs under both
// the periodic and the adhoc source; the reschedule job runs once,
// shortly after a settings change.
const (
	JobCheckPosts = "check_posts_to_lock"
	JobReschedule = "reschedule_adhoc_tasks"
)

// Store keys owned by this package.
const (
	cronKey          = "cron"
	backlogSeededKey = "historical_posts_queued"
	versionKey       = "installed_version"
)

const (
	// batchLimit bounds one processing pass; overflow drains on
	// subsequent passes.
	batchLimit = 50
	// coveredWindow: when the periodic pass lands within this window
	// after the next lock deadline, an extra adhoc pass isn't worth it.
	coveredWindow = 30 * time.Second
	// adhocNudge pushes the adhoc pass just past the deadline so the
	// due-range query includes the post that triggered it.
	adhocNudge = time.Second
	// backlogFetchLimit caps the one-time historical seeding scan.
	backlogFetchLimit = 1000
)

// ErrCronMissing reports the persisted periodic cron expression being
// absent when the reconciler needs it. It should never happen outside a
// corrupted store; reconciliation is skipped and the value is restored
// on the next install/upgrade.
var ErrCronMissing = errors.New("periodic cron expression missing from store")

// SettingsFunc returns the current frozen settings snapshot. Each
// invocation calls it exactly once.
type SettingsFunc func() (Settings, error)

type Service struct {
	log      logx.Logger
	store    storage.Store
	queue    *lockqueue.Queue
	platform platform.Client
	sched    *scheduler.Service
	metrics  *metrics.Metrics
	settings SettingsFunc

	now func() time.Time // swapped in tests
}

func NewService(
	log logx.Logger,
	store storage.Store,
	pf platform.Client,
	sched *scheduler.Service,
	m *metrics.Metrics,
	settings SettingsFunc,
) *Service {
	return &Service{
		log:      log,
		store:    store,
		queue:    lockqueue.New(store),
		platform: pf,
		sched:    sched,
		metrics:  m,
		settings: settings,
		now:      time.Now,
	}
}

// Queue exposes the pending queue for the event wiring.
func (s *Service) Queue() *lockqueue.Queue { return s.queue }

// HandlePostCreated enqueues a freshly created post and reconciles so an
// adhoc pass covers it if the periodic pass would be too late.
func (s *Service) HandlePostCreated(ctx context.Context, postID string, createdAt time.Time) error {
	if err := s.queue.Enqueue(ctx, postID, createdAt); err != nil {
		return err
	}
	s.metrics.IncEnqueued()
	s.log.Info("post queued for future lock check",
		logx.String("post", postID),
		logx.Time("created_at", createdAt))
	return s.Reconcile(ctx)
}

// Reconcile snapshots settings and runs the adaptive reconciliation.
func (s *Service) Reconcile(ctx context.Context) error {
	set, err := s.settings()
	if err != nil {
		return err
	}
	return s.reconcile(ctx, set)
}
