// Package app wires the daemon together: config manager, logging,
// storage, platform client, scheduler, lockdown service, and the
// inbound webhook listener.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lockbot/internal/config"
	"lockbot/internal/lockdown"
	"lockbot/internal/metrics"
	"lockbot/internal/platform"
	"lockbot/internal/scheduler"
	"lockbot/internal/storage"
	"lockbot/internal/transport/webhook"
	"lockbot/pkg/logx"
)

// rescheduleDelay defers the reaction to a settings change so bursts of
// file writes collapse into one reschedule job.
const rescheduleDelay = 5 * time.Second

type App struct {
	version string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	store storage.Store
	pf    platform.Client
	sched *scheduler.Service
	met   *metrics.Metrics
	lock  *lockdown.Service
	web   *webhook.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
	webErr <-chan error
}

func New(cfgPath, version string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		logs.Close()
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		logs.Close()
		return nil, err
	}

	pc, err := mapPlatformConfig(cfg)
	if err != nil {
		store.Close()
		logs.Close()
		return nil, err
	}
	pf, err := platform.NewHTTP(pc, log.With(logx.String("comp", "platform")))
	if err != nil {
		store.Close()
		logs.Close()
		return nil, err
	}

	met := metrics.New()
	sched := scheduler.New(log.With(logx.String("comp", "scheduler")))

	lock := lockdown.NewService(
		log.With(logx.String("comp", "lockdown")),
		store, pf, sched, met,
		func() (lockdown.Settings, error) { return lockdown.SettingsFromConfig(cfgm.Get()) },
	)

	web := webhook.New(log.With(logx.String("comp", "webhook")), cfg.Listen.Addr, lock, met)

	return &App{
		version: version,
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		store:   store,
		pf:      pf,
		sched:   sched,
		met:     met,
		lock:    lock,
		web:     web,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.sched.RegisterHandler(lockdown.JobCheckPosts, func(c context.Context, job scheduler.Job) error {
		return a.lock.CheckDuePosts(c, job.Source)
	})
	a.sched.RegisterHandler(lockdown.JobReschedule, func(c context.Context, _ scheduler.Job) error {
		return a.lock.HandleSettingsChange(c)
	})
	a.sched.Start()

	if err := a.lock.EnsureInstalled(runCtx, a.version); err != nil {
		return err
	}

	webErr, err := a.web.Start()
	if err != nil {
		return err
	}
	a.webErr = webErr

	// Transactional hot reload: a rejected file never reaches subscribers.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(config.Validate)

	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.onConfigChange(cfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch exited", logx.Err(err))
		}
	}()

	a.log.Info("app started", logx.String("version", a.version))
	return nil
}

// Failed reports a fatal listener error after Start.
func (a *App) Failed() <-chan error { return a.webErr }

func (a *App) onConfigChange(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	// One pending reschedule job at a time; a newer change replaces it.
	a.sched.CancelByName(lockdown.JobReschedule, "")
	if _, err := a.sched.Schedule(scheduler.Job{
		Name:   lockdown.JobReschedule,
		Source: scheduler.SourceAdhoc,
		RunAt:  time.Now().Add(rescheduleDelay),
	}); err != nil {
		a.log.Warn("schedule settings-change job", logx.Err(err))
		return
	}
	a.log.Info("settings changed; reschedule queued", logx.Duration("in", rescheduleDelay))
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.web.Shutdown(ctx); err != nil {
		a.log.Warn("webhook shutdown", logx.Err(err))
	}
	a.sched.Stop()
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close", logx.Err(err))
	}

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
	}
	if s := strings.TrimSpace(cfg.Storage.BusyTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return storage.Config{}, fmt.Errorf("storage.busy_timeout: %w", err)
		}
		sc.BusyTimeout = d
	}
	return sc, nil
}

func mapPlatformConfig(cfg *config.Config) (platform.Config, error) {
	pc := platform.Config{
		BaseURL:    cfg.Platform.BaseURL,
		Community:  cfg.Community,
		Token:      cfg.Platform.Token,
		UserAgent:  cfg.Platform.UserAgent,
		RatePerSec: cfg.Platform.RatePerSec,
	}
	if s := strings.TrimSpace(cfg.Platform.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return platform.Config{}, fmt.Errorf("platform.timeout: %w", err)
		}
		pc.Timeout = d
	}
	return pc, nil
}
