package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/notify"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/memory"
)

const testSite = "test_site"

type funcParser struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(title string, call int) ([]string, error)
}

func newFuncParser(fn func(title string, call int) ([]string, error)) *funcParser {
	return &funcParser{calls: map[string]int{}, fn: fn}
}

func (p *funcParser) SiteName() string { return testSite }

func (p *funcParser) FetchGenres(_ context.Context, title string) ([]string, error) {
	p.mu.Lock()
	p.calls[title]++
	call := p.calls[title]
	p.mu.Unlock()
	return p.fn(title, call)
}

func (p *funcParser) callsFor(title string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[title]
}

type recordingPauser struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (p *recordingPauser) Pause(_ context.Context, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses = append(p.pauses, d)
}

func (p *recordingPauser) recorded() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.pauses...)
}

type failingStore struct {
	*memory.Store
	failTitle string
}

func (s *failingStore) AddDump(ctx context.Context, dump crawler.Dump) error {
	if dump.Title == s.failTitle {
		return errors.New("disk full")
	}
	return s.Store.AddDump(ctx, dump)
}

func newTestWorker(parser crawler.SiteParser, store crawler.DumpStore) (*Worker, *recordingPauser, *notify.Memory, *atomic.Int64) {
	pauser := &recordingPauser{}
	notifier := notify.NewMemory()
	counter := &atomic.Int64{}
	w := New(parser, store, notifier, pauser, crawler.NewSchedulePolicy(), counter, zap.NewNop())
	return w, pauser, notifier, counter
}

func TestRunStoresGenresAndPacesRequests(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	parser := newFuncParser(func(title string, _ int) ([]string, error) {
		if title == "Bar" {
			return []string{}, nil
		}
		return []string{"Action", "RPG"}, nil
	})
	w, pauser, notifier, counter := newTestWorker(parser, store)

	stats, err := w.Run(context.Background(), []string{"Foo", "Bar"})
	require.NoError(t, err)
	require.Equal(t, crawler.CrawlStats{Site: testSite, Processed: 2, Succeeded: 2}, stats)
	require.Equal(t, int64(2), counter.Load())
	require.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, pauser.recorded())
	require.Empty(t, notifier.Messages())

	dumps, err := store.Dumps(context.Background())
	require.NoError(t, err)
	require.Equal(t, []crawler.Dump{
		{Site: testSite, Title: "Foo", Genres: []string{"Action", "RPG"}},
		{Site: testSite, Title: "Bar", Genres: []string{}},
	}, dumps)
}

func TestRunSkipsRecordedTitles(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	require.NoError(t, store.AddDump(context.Background(), crawler.Dump{Site: testSite, Title: "Foo", Genres: []string{"RPG"}}))
	require.NoError(t, store.AddDump(context.Background(), crawler.Dump{Site: "other_site", Title: "Bar", Genres: []string{"RPG"}}))
	parser := newFuncParser(func(string, int) ([]string, error) { return []string{"Shooter"}, nil })
	w, _, _, counter := newTestWorker(parser, store)

	stats, err := w.Run(context.Background(), []string{"Foo", "Bar"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, 1, stats.Succeeded)
	require.Equal(t, 0, parser.callsFor("Foo"))
	require.Equal(t, 1, parser.callsFor("Bar"))
	require.Equal(t, int64(1), counter.Load())
}

func TestRunRetriesWithEscalatingPauses(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	parser := newFuncParser(func(_ string, call int) ([]string, error) {
		if call <= 2 {
			return nil, &crawler.FetchError{Site: testSite, Title: "Foo", Err: errors.New("503")}
		}
		return []string{"RPG"}, nil
	})
	w, pauser, _, _ := newTestWorker(parser, store)

	stats, err := w.Run(context.Background(), []string{"Foo"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Succeeded)
	require.Equal(t, 3, parser.callsFor("Foo"))
	require.Equal(t, []time.Duration{time.Minute, 5 * time.Minute, 5 * time.Second}, pauser.recorded())
}

func TestRunExhaustionWritesSentinelOnce(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	parser := newFuncParser(func(string, int) ([]string, error) {
		return nil, errors.New("connection reset")
	})
	w, pauser, notifier, counter := newTestWorker(parser, store)

	stats, err := w.Run(context.Background(), []string{"Foo"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Exhausted)
	require.Equal(t, crawler.DefaultMaxAttempts, parser.callsFor("Foo"))
	require.Equal(t, crawler.DefaultPauses, pauser.recorded())
	require.Zero(t, counter.Load())
	require.Equal(t, []notify.Message{{
		Source: NotifySource,
		Text:   `Attempts exhausted for "Foo" (test_site)`,
	}}, notifier.Messages())

	dumps, err := store.Dumps(context.Background())
	require.NoError(t, err)
	require.Len(t, dumps, 1)
	require.True(t, dumps[0].Sentinel())

	stats, err = w.Run(context.Background(), []string{"Foo"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, crawler.DefaultMaxAttempts, parser.callsFor("Foo"))
}

func TestRunCapsInterRequestDelay(t *testing.T) {
	t.Parallel()

	policy := crawler.NewSchedulePolicy()
	policy.MaxDelay = 4 * time.Second
	parser := newFuncParser(func(_ string, call int) ([]string, error) {
		if call <= 3 {
			return nil, errors.New("timeout")
		}
		return []string{"RPG"}, nil
	})
	pauser := &recordingPauser{}
	w := New(parser, memory.NewStore(), nil, pauser, policy, nil, nil)

	_, err := w.Run(context.Background(), []string{"Foo"})
	require.NoError(t, err)
	require.Equal(t, []time.Duration{time.Minute, 5 * time.Minute, 10 * time.Minute, 4 * time.Second}, pauser.recorded())
}

func TestRunPausesEveryBatch(t *testing.T) {
	t.Parallel()

	policy := crawler.NewSchedulePolicy()
	policy.BatchSize = 2
	policy.BatchPause = time.Hour
	parser := newFuncParser(func(string, int) ([]string, error) { return []string{"RPG"}, nil })
	pauser := &recordingPauser{}
	w := New(parser, memory.NewStore(), nil, pauser, policy, nil, zap.NewNop())

	_, err := w.Run(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, time.Hour, 3 * time.Second}, pauser.recorded())
}

func TestRunContinuesAfterPanicAndStoreError(t *testing.T) {
	t.Parallel()

	store := &failingStore{Store: memory.NewStore(), failTitle: "Bar"}
	parser := newFuncParser(func(title string, _ int) ([]string, error) {
		if title == "Foo" {
			panic("unexpected markup")
		}
		return []string{"RPG"}, nil
	})
	w, _, _, counter := newTestWorker(parser, store)

	stats, err := w.Run(context.Background(), []string{"Foo", "Bar", "Baz"})
	require.NoError(t, err)
	require.Equal(t, 3, stats.Processed)
	require.Equal(t, 2, stats.Errors)
	require.Equal(t, 1, stats.Succeeded)
	require.Equal(t, int64(1), counter.Load())

	exists, err := store.DumpExists(context.Background(), testSite, "Baz")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	parser := newFuncParser(func(string, int) ([]string, error) {
		cancel()
		return []string{"RPG"}, nil
	})
	w, _, _, _ := newTestWorker(parser, memory.NewStore())

	stats, err := w.Run(ctx, []string{"Foo", "Bar"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, stats.Processed)
	require.Equal(t, 0, parser.callsFor("Bar"))
}
