// Package dispatcher fans one crawl pass out to a worker per source.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/worker"
)

// Result summarizes one pass.
type Result struct {
	// Added counts lookups stored by all workers during the pass.
	Added    int64                `json:"added"`
	Stats    []crawler.CrawlStats `json:"stats"`
	Duration time.Duration        `json:"duration"`
}

// Dispatcher runs every worker concurrently over the same catalog.
type Dispatcher struct {
	workers []*worker.Worker
	counter *atomic.Int64
	logger  *zap.Logger
}

// New creates a Dispatcher. counter must be the one shared by workers.
func New(workers []*worker.Worker, counter *atomic.Int64, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if counter == nil {
		counter = &atomic.Int64{}
	}
	return &Dispatcher{
		workers: workers,
		counter: counter,
		logger:  logger.Named("dispatcher"),
	}
}

// ForParsers builds one worker per parser, all sharing a success counter.
func ForParsers(
	parsers []crawler.SiteParser,
	store crawler.DumpStore,
	notifier crawler.Notifier,
	pauser crawler.Pauser,
	policy *crawler.SchedulePolicy,
	logger *zap.Logger,
) *Dispatcher {
	counter := &atomic.Int64{}
	workers := make([]*worker.Worker, 0, len(parsers))
	for _, p := range parsers {
		workers = append(workers, worker.New(p, store, notifier, pauser, policy, counter, logger))
	}
	return New(workers, counter, logger)
}

// Crawl runs every worker over titles and waits for all of them. Worker
// failures are logged; only cancellation is returned.
func (d *Dispatcher) Crawl(ctx context.Context, titles []string) (Result, error) {
	start := time.Now()
	d.counter.Store(0)
	d.logger.Info("crawl pass started", zap.Int("titles", len(titles)), zap.Int("workers", len(d.workers)))

	stats := make([]crawler.CrawlStats, len(d.workers))
	var wg sync.WaitGroup
	for i, w := range d.workers {
		wg.Add(1)
		go func(i int, wk *worker.Worker) {
			defer wg.Done()
			s, err := wk.Run(ctx, titles)
			stats[i] = s
			if err != nil && ctx.Err() == nil {
				d.logger.Error("worker stopped", zap.String("site", wk.Site()), zap.Error(err))
			}
		}(i, w)
	}
	wg.Wait()

	result := Result{
		Added:    d.counter.Load(),
		Stats:    stats,
		Duration: time.Since(start),
	}
	d.logger.Info("crawl pass finished",
		zap.Int64("added", result.Added),
		zap.Duration("duration", result.Duration),
	)
	return result, ctx.Err()
}
