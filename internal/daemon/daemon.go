package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"shuttle/internal/config"
	"shuttle/internal/ledger"
	"shuttle/internal/logging"
	"shuttle/internal/metadata"
	"shuttle/internal/notifications"
	"shuttle/internal/probe"
	"shuttle/internal/repair"
	"shuttle/internal/report"
	"shuttle/internal/scheduler"
	"shuttle/internal/videoqc"
)

// Daemon runs the stage workers and the scheduled repair pass, and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ledger.Store
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	cron    *cron.Cron
	wg      sync.WaitGroup

	mu      sync.Mutex
	lastErr error
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "shuttled.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the stage workers plus the
// repair schedule. Worker exits are collected; the first failure cancels the
// remaining workers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shuttle daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	audit := scheduler.MultiSink{d.store, notifications.NewSink(d.notifier, d.logger)}
	runner := &probe.ExecRunner{Binary: d.cfg.FFprobeBinary()}

	workers := make([]*scheduler.Worker, 0, 3)
	metadataWorker, err := metadata.NewWorker(d.cfg, d.store, runner, audit, d.logger)
	if err != nil {
		return d.abortStart(fmt.Errorf("build metadata worker: %w", err))
	}
	workers = append(workers, metadataWorker)

	qcWorker, err := videoqc.NewWorker(d.cfg, d.store, audit, d.logger)
	if err != nil {
		return d.abortStart(fmt.Errorf("build video qc worker: %w", err))
	}
	workers = append(workers, qcWorker)

	reportWorker, err := report.NewWorker(d.cfg, d.store, audit, d.logger)
	if err != nil {
		return d.abortStart(fmt.Errorf("build report worker: %w", err))
	}
	workers = append(workers, reportWorker)

	for _, worker := range workers {
		d.wg.Add(1)
		go func(w *scheduler.Worker) {
			defer d.wg.Done()
			if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				d.recordFailure(err)
				d.logger.Error("worker exited", logging.Error(err))
				_ = d.notifier.NotifyError(runCtx, err, "worker")
				cancel()
			}
		}(worker)
	}

	if err := d.startRepairSchedule(runCtx, audit); err != nil {
		cancel()
		d.wg.Wait()
		return d.abortStart(err)
	}

	d.running.Store(true)
	d.logger.Info("shuttle daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("workers", len(workers)),
	)
	return nil
}

func (d *Daemon) abortStart(err error) error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
	return err
}

func (d *Daemon) startRepairSchedule(ctx context.Context, audit scheduler.AuditSink) error {
	schedule := d.cfg.Orchestration.RepairSchedule
	if schedule == "" {
		d.logger.Info("repair schedule disabled")
		return nil
	}

	pass := repair.NewPass(d.cfg, d.store, audit, d.logger)
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		purged, err := pass.Run(ctx)
		if err != nil {
			d.logger.Error("repair pass failed", logging.Error(err))
			_ = d.notifier.NotifyError(ctx, err, "repair")
			return
		}
		if purged > 0 {
			_ = d.notifier.NotifyRepairCompleted(ctx, purged)
		}
	})
	if err != nil {
		return fmt.Errorf("register repair schedule %q: %w", schedule, err)
	}
	c.Start()
	d.cron = c
	d.logger.Info("repair schedule registered", logging.String("schedule", schedule))
	return nil
}

func (d *Daemon) recordFailure(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastErr == nil {
		d.lastErr = err
	}
}

// Wait blocks until every worker goroutine has exited and returns the first
// worker failure, if any.
func (d *Daemon) Wait() error {
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Stop cancels workers, halts the repair schedule, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cron != nil {
		<-d.cron.Stop().Done()
		d.cron = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("shuttle daemon stopped")
}

// Close stops the daemon and closes the ledger store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon holds the lock and its workers are live.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the lock file location, for status output.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
