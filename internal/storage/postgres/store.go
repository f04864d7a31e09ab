// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

//go:embed schema.sql
var schemaSQL string

// StoreConfig controls the Postgres connection pool.
type StoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store persists dumps, games and genres into Postgres.
type Store struct {
	pool pool
}

var _ crawler.Store = (*Store)(nil)

// NewStore connects to Postgres and applies the schema.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres_dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := p.Exec(ctx, schemaSQL); err != nil {
		p.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// DumpExists reports whether (site, title) has been recorded.
func (s *Store) DumpExists(ctx context.Context, site, title string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dumps WHERE site = $1 AND name = $2)`, site, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dump exists: %w", err)
	}
	return exists, nil
}

// AddDump inserts the dump; an existing (site, title) row is left untouched.
func (s *Store) AddDump(ctx context.Context, dump crawler.Dump) error {
	genres := dump.Genres
	if genres == nil {
		genres = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dumps (site, name, genres) VALUES ($1, $2, $3) ON CONFLICT (site, name) DO NOTHING`,
		dump.Site, dump.Title, genres)
	if err != nil {
		return fmt.Errorf("insert dump: %w", err)
	}
	return nil
}

// DistinctGenres returns every raw genre across all dumps, sorted.
func (s *Store) DistinctGenres(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT unnest(genres) FROM dumps`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return crawler.SortedSet(out), nil
}

// DumpsByTitle groups dumps by title with the union of their genres.
func (s *Store) DumpsByTitle(ctx context.Context) ([]crawler.TitleDumps, error) {
	dumps, err := s.Dumps(ctx)
	if err != nil {
		return nil, err
	}
	return crawler.GroupDumps(dumps), nil
}

// Dumps returns every dump in insertion order.
func (s *Store) Dumps(ctx context.Context) ([]crawler.Dump, error) {
	rows, err := s.pool.Query(ctx, `SELECT site, name, genres FROM dumps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query dumps: %w", err)
	}
	defer rows.Close()
	var out []crawler.Dump
	for rows.Next() {
		var d crawler.Dump
		if err := rows.Scan(&d.Site, &d.Title, &d.Genres); err != nil {
			return nil, fmt.Errorf("scan dump: %w", err)
		}
		if d.Genres == nil {
			d.Genres = []string{}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDumps returns the number of dumps.
func (s *Store) CountDumps(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dumps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dumps: %w", err)
	}
	return int(n), nil
}

// UpsertGame stores the game. Unchanged rows are not rewritten and report false.
func (s *Store) UpsertGame(ctx context.Context, game crawler.Game) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO games (name, genres) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET genres = EXCLUDED.genres, updated_at = now()
WHERE games.genres IS DISTINCT FROM EXCLUDED.genres`,
		game.Name, crawler.SortedSet(game.Genres))
	if err != nil {
		return false, fmt.Errorf("upsert game: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertGenre stores the genre. Unchanged rows are not rewritten and report false.
func (s *Store) UpsertGenre(ctx context.Context, genre crawler.Genre) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO genres (name, description, aliases) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, aliases = EXCLUDED.aliases, updated_at = now()
WHERE genres.description IS DISTINCT FROM EXCLUDED.description
   OR genres.aliases IS DISTINCT FROM EXCLUDED.aliases`,
		genre.Name, genre.Description, crawler.SortedSet(genre.Aliases))
	if err != nil {
		return false, fmt.Errorf("upsert genre: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Games lists games sorted by name.
func (s *Store) Games(ctx context.Context) ([]crawler.Game, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, genres FROM games ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()
	var out []crawler.Game
	for rows.Next() {
		var g crawler.Game
		if err := rows.Scan(&g.Name, &g.Genres); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Game fetches one game by exact name.
func (s *Store) Game(ctx context.Context, name string) (crawler.Game, error) {
	g := crawler.Game{Name: name}
	err := s.pool.QueryRow(ctx, `SELECT genres FROM games WHERE name = $1`, name).Scan(&g.Genres)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.Game{}, crawler.ErrNotFound
	}
	if err != nil {
		return crawler.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

// Genres lists genres sorted by name.
func (s *Store) Genres(ctx context.Context) ([]crawler.Genre, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, description, aliases FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()
	var out []crawler.Genre
	for rows.Next() {
		var g crawler.Genre
		if err := rows.Scan(&g.Name, &g.Description, &g.Aliases); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Genre fetches one genre by exact name.
func (s *Store) Genre(ctx context.Context, name string) (crawler.Genre, error) {
	g := crawler.Genre{Name: name}
	err := s.pool.QueryRow(ctx, `SELECT description, aliases FROM genres WHERE name = $1`, name).
		Scan(&g.Description, &g.Aliases)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.Genre{}, crawler.ErrNotFound
	}
	if err != nil {
		return crawler.Genre{}, fmt.Errorf("get genre: %w", err)
	}
	return g, nil
}
