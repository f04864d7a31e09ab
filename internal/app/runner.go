package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/dispatcher"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
	"github.com/JakeFAU/game-genres-crawler/internal/normalize"
)

// Cycle results used as the metrics label.
const (
	cycleOK    = "ok"
	cycleError = "error"
)

// CycleReport summarizes one crawl and normalize cycle.
type CycleReport struct {
	ID        string            `json:"id"`
	BackupURI string            `json:"backup_uri"`
	Titles    int               `json:"titles"`
	Crawl     dispatcher.Result `json:"crawl"`
	Dumps     int               `json:"dumps"`
	Normalize normalize.Report  `json:"normalize"`
	Duration  time.Duration     `json:"duration"`
}

// Runner repeats the backup, crawl and normalize cycle until cancelled.
type Runner struct {
	app              *App
	dispatcher       *dispatcher.Dispatcher
	pauser           crawler.Pauser
	cycleInterval    time.Duration
	recoveryInterval time.Duration
	logger           *zap.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithPauser replaces the timer used between cycles and inside workers.
func WithPauser(p crawler.Pauser) RunnerOption {
	return func(r *Runner) { r.pauser = p }
}

// NewRunner builds the dispatcher from the enabled parsers.
func (a *App) NewRunner(opts ...RunnerOption) (*Runner, error) {
	registry, err := a.Registry()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		app:              a,
		pauser:           crawler.NewTimerPauser(),
		cycleInterval:    a.Config.CycleInterval(),
		recoveryInterval: a.Config.RecoveryInterval(),
		logger:           a.Logger.Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	a.Logger.Info(registry.Describe())
	r.dispatcher = dispatcher.ForParsers(registry.List(), a.Store, a.Notifier, r.pauser, a.Config.Policy(), a.Logger)
	return r, nil
}

// Run loops until ctx is cancelled. A failed cycle is followed by the
// recovery interval instead of the regular one.
func (r *Runner) Run(ctx context.Context) error {
	for {
		_, err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := r.cycleInterval
		if err != nil {
			r.logger.Error("cycle failed", zap.Error(err), zap.Duration("retry_in", r.recoveryInterval))
			wait = r.recoveryInterval
		}
		r.pauser.Pause(ctx, wait)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// RunOnce runs a single cycle. Panics are converted into errors.
func (r *Runner) RunOnce(ctx context.Context) (report CycleReport, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("cycle panicked", zap.Any("panic", rec), zap.Stack("stack"))
			err = fmt.Errorf("cycle panicked: %v", rec)
		}
		report.Duration = time.Since(start)
		result := cycleOK
		if err != nil {
			result = cycleError
		}
		metrics.ObserveCycle(result, report.Duration)
	}()

	id, err := r.app.IDs.NewID()
	if err != nil {
		return report, fmt.Errorf("cycle id: %w", err)
	}
	report.ID = id
	logger := r.logger.With(zap.String("cycle_id", id))
	logger.Info("cycle started")

	if report.BackupURI, err = r.app.Backup.Backup(ctx); err != nil {
		return report, fmt.Errorf("backup: %w", err)
	}

	titles, err := r.app.Catalog.Titles(ctx)
	if err != nil {
		return report, fmt.Errorf("load catalog: %w", err)
	}
	report.Titles = len(titles)
	logger.Info("catalog loaded", zap.Int("titles", len(titles)))

	report.Crawl, err = r.dispatcher.Crawl(ctx, titles)
	if err != nil {
		return report, fmt.Errorf("crawl: %w", err)
	}
	if report.Dumps, err = r.app.Store.CountDumps(ctx); err != nil {
		return report, fmt.Errorf("count dumps: %w", err)
	}
	logger.Info("crawl finished",
		zap.Int64("added", report.Crawl.Added),
		zap.Int("dumps", report.Dumps),
		zap.Duration("elapsed", time.Since(start)),
	)

	report.Normalize, err = r.app.Normalizer.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("normalize: %w", err)
	}
	logger.Info("cycle finished", zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// IsShutdown reports whether err only signals cancellation.
func IsShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
