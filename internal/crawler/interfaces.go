package crawler

import (
	"context"
	"io"
	"time"
)

// SiteParser looks up the genres a single source lists for a title.
// It returns an empty slice when the title is not found and a *FetchError
// when the answer could not be determined.
type SiteParser interface {
	SiteName() string
	FetchGenres(ctx context.Context, title string) ([]string, error)
}

// DumpStore persists raw per-source observations.
type DumpStore interface {
	DumpExists(ctx context.Context, site, title string) (bool, error)
	// AddDump is a no-op when (site, title) is already recorded.
	AddDump(ctx context.Context, dump Dump) error
	DistinctGenres(ctx context.Context) ([]string, error)
	DumpsByTitle(ctx context.Context) ([]TitleDumps, error)
	Dumps(ctx context.Context) ([]Dump, error)
	CountDumps(ctx context.Context) (int, error)
}

// CatalogStore persists the derived Game and Genre tables.
type CatalogStore interface {
	UpsertGame(ctx context.Context, game Game) (bool, error)
	UpsertGenre(ctx context.Context, genre Genre) (bool, error)
	Games(ctx context.Context) ([]Game, error)
	Game(ctx context.Context, name string) (Game, error)
	Genres(ctx context.Context) ([]Genre, error)
	Genre(ctx context.Context, name string) (Genre, error)
}

// Store is the full persistence contract shared by workers and the normalizer.
type Store interface {
	DumpStore
	CatalogStore
	Close() error
}

// Notifier sends fire-and-forget operator messages.
type Notifier interface {
	Notify(ctx context.Context, source, text string) error
}

// Pauser blocks for the given delay or until the context is done.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// BlobStore writes and reads named artifacts.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces cycle IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
