// Package worker runs the crawl loop of a single source: every catalog title
// is looked up once, retried on failure with escalating pauses, and recorded
// as a Dump.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/logging"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
)

// NotifySource names the crawl loop in operator notifications.
const NotifySource = "crawler"

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeExhausted
	outcomeFailed
)

// Worker crawls every title for one parser.
type Worker struct {
	parser   crawler.SiteParser
	store    crawler.DumpStore
	notifier crawler.Notifier
	pauser   crawler.Pauser
	policy   *crawler.SchedulePolicy
	counter  *atomic.Int64
	logger   *zap.Logger
}

// New constructs a Worker. counter is shared by every worker of a pass and
// counts stored lookups.
func New(
	parser crawler.SiteParser,
	store crawler.DumpStore,
	notifier crawler.Notifier,
	pauser crawler.Pauser,
	policy *crawler.SchedulePolicy,
	counter *atomic.Int64,
	logger *zap.Logger,
) *Worker {
	if policy == nil {
		policy = crawler.NewSchedulePolicy()
	}
	if pauser == nil {
		pauser = crawler.NewTimerPauser()
	}
	if counter == nil {
		counter = &atomic.Int64{}
	}
	return &Worker{
		parser:   parser,
		store:    store,
		notifier: notifier,
		pauser:   pauser,
		policy:   policy,
		counter:  counter,
		logger:   logging.ForSite(logger, "worker", parser.SiteName()),
	}
}

// Site returns the source this worker crawls.
func (w *Worker) Site() string {
	return w.parser.SiteName()
}

// Run visits titles in order until they are exhausted or ctx is done.
// A failure on one title never stops the loop; a panic outside the
// per-title handling ends this worker only.
func (w *Worker) Run(ctx context.Context, titles []string) (stats crawler.CrawlStats, err error) {
	stats.Site = w.Site()
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("worker %s panicked: %v", stats.Site, r)
		}
	}()

	delay := w.policy.InitialDelay
	number := 0
	for _, title := range titles {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		exists, err := w.store.DumpExists(ctx, stats.Site, title)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			w.logger.Error("dump lookup failed", zap.String("title", title), zap.Error(err))
			continue
		}
		if exists {
			stats.Skipped++
			continue
		}

		number++
		stats.Processed++
		switch w.processTitle(ctx, number, title, &delay) {
		case outcomeSucceeded:
			stats.Succeeded++
		case outcomeExhausted:
			stats.Exhausted++
		case outcomeFailed:
			stats.Errors++
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if w.policy.BatchDue(number) {
			w.logger.Info("batch pause",
				zap.Int("number", number),
				zap.Duration("pause", w.policy.BatchPause),
			)
			w.pauser.Pause(ctx, w.policy.BatchPause)
		}
	}

	w.logger.Info("worker finished",
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("exhausted", stats.Exhausted),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

// processTitle runs the attempt loop for one title. delay is the pause after
// a stored result and grows with every failed attempt.
func (w *Worker) processTitle(ctx context.Context, number int, title string, delay *time.Duration) (result outcome) {
	logger := w.logger.With(zap.Int("number", number), zap.String("title", title))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("title handling panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = outcomeFailed
		}
	}()

	for attempt := 1; ; attempt++ {
		logger.Info("searching genres", zap.Int("attempt", attempt), zap.Int("max_attempts", w.policy.MaxAttempts))
		genres, err := w.parser.FetchGenres(ctx, title)
		if err == nil {
			return w.record(ctx, logger, title, genres, *delay)
		}
		if ctx.Err() != nil {
			return outcomeFailed
		}

		logger.Warn("lookup failed", zap.Int("attempt", attempt), zap.Error(err))
		if !w.policy.ShouldRetry(attempt) {
			return w.exhaust(ctx, logger, title)
		}

		pause := w.policy.Backoff(attempt)
		logger.Info("pausing before retry", zap.Duration("pause", pause))
		w.pauser.Pause(ctx, pause)
		if ctx.Err() != nil {
			return outcomeFailed
		}
		*delay = w.policy.NextDelay(*delay)
	}
}

func (w *Worker) record(ctx context.Context, logger *zap.Logger, title string, genres []string, delay time.Duration) outcome {
	logger.Info("genres found", zap.Strings("genres", genres))
	if err := w.addDump(ctx, title, genres); err != nil {
		logger.Error("store dump failed", zap.Error(err))
		return outcomeFailed
	}
	kind := metrics.StatusFound
	if len(genres) == 0 {
		kind = metrics.StatusEmpty
	}
	metrics.ObserveDump(w.Site(), kind)
	w.counter.Add(1)
	w.pauser.Pause(ctx, delay)
	return outcomeSucceeded
}

// exhaust records an empty dump so the title is never retried, then tells
// the operator.
func (w *Worker) exhaust(ctx context.Context, logger *zap.Logger, title string) outcome {
	text := fmt.Sprintf("Attempts exhausted for %q (%s)", title, w.Site())
	logger.Warn("attempts exhausted")
	if err := w.addDump(ctx, title, []string{}); err != nil {
		logger.Error("store sentinel failed", zap.Error(err))
		return outcomeFailed
	}
	metrics.ObserveDump(w.Site(), metrics.StatusSentinel)
	if w.notifier != nil {
		if err := w.notifier.Notify(ctx, NotifySource, text); err != nil {
			logger.Warn("notification failed", zap.Error(err))
		}
	}
	return outcomeExhausted
}

func (w *Worker) addDump(ctx context.Context, title string, genres []string) error {
	if genres == nil {
		genres = []string{}
	}
	if err := w.store.AddDump(ctx, crawler.Dump{Site: w.Site(), Title: title, Genres: genres}); err != nil {
		return fmt.Errorf("add dump: %w", err)
	}
	return nil
}
