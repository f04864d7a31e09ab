// Package sqlite persists dumps, games and genres in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ crawler.Store = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// DumpExists reports whether (site, title) has been recorded.
func (s *Store) DumpExists(ctx context.Context, site, title string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM dumps WHERE site = ? AND name = ?`, site, title).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dump exists: %w", err)
	}
	return true, nil
}

// AddDump inserts the dump; an existing (site, title) row is left untouched.
func (s *Store) AddDump(ctx context.Context, dump crawler.Dump) error {
	genres, err := encodeList(dump.Genres)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dumps (site, name, genres, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (site, name) DO NOTHING`,
		dump.Site, dump.Title, genres, s.timestamp())
	if err != nil {
		return fmt.Errorf("insert dump: %w", err)
	}
	return nil
}

// DistinctGenres returns every raw genre across all dumps, sorted.
func (s *Store) DistinctGenres(ctx context.Context) ([]string, error) {
	dumps, err := s.Dumps(ctx)
	if err != nil {
		return nil, err
	}
	var all []string
	for _, d := range dumps {
		all = append(all, d.Genres...)
	}
	return crawler.SortedSet(all), nil
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
	rows, err := s.db.QueryContext(ctx, `SELECT site, name, genres FROM dumps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query dumps: %w", err)
	}
	defer rows.Close()

	var out []crawler.Dump
	for rows.Next() {
		var d crawler.Dump
		var genres string
		if err := rows.Scan(&d.Site, &d.Title, &genres); err != nil {
			return nil, fmt.Errorf("scan dump: %w", err)
		}
		if d.Genres, err = decodeList(genres); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDumps returns the number of dumps.
func (s *Store) CountDumps(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dumps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dumps: %w", err)
	}
	return n, nil
}

// UpsertGame stores the game and reports whether it changed.
func (s *Store) UpsertGame(ctx context.Context, game crawler.Game) (bool, error) {
	game.Genres = crawler.SortedSet(game.Genres)
	existing, err := s.Game(ctx, game.Name)
	switch {
	case err == nil && crawler.EqualSets(existing.Genres, game.Genres):
		return false, nil
	case err != nil && !errors.Is(err, crawler.ErrNotFound):
		return false, err
	}
	genres, err := encodeList(game.Genres)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (name, genres, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET genres = excluded.genres, updated_at = excluded.updated_at`,
		game.Name, genres, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("upsert game: %w", err)
	}
	return true, nil
}

// UpsertGenre stores the genre and reports whether it changed.
func (s *Store) UpsertGenre(ctx context.Context, genre crawler.Genre) (bool, error) {
	genre.Aliases = crawler.SortedSet(genre.Aliases)
	existing, err := s.Genre(ctx, genre.Name)
	switch {
	case err == nil && existing.Description == genre.Description && crawler.EqualSets(existing.Aliases, genre.Aliases):
		return false, nil
	case err != nil && !errors.Is(err, crawler.ErrNotFound):
		return false, err
	}
	aliases, err := encodeList(genre.Aliases)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO genres (name, description, aliases, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET description = excluded.description,
		   aliases = excluded.aliases, updated_at = excluded.updated_at`,
		genre.Name, genre.Description, aliases, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("upsert genre: %w", err)
	}
	return true, nil
}

// Games lists games sorted by name.
func (s *Store) Games(ctx context.Context) ([]crawler.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, genres FROM games ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []crawler.Game
	for rows.Next() {
		var g crawler.Game
		var genres string
		if err := rows.Scan(&g.Name, &genres); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if g.Genres, err = decodeList(genres); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Game fetches one game by exact name.
func (s *Store) Game(ctx context.Context, name string) (crawler.Game, error) {
	var genres string
	err := s.db.QueryRowContext(ctx, `SELECT genres FROM games WHERE name = ?`, name).Scan(&genres)
	if errors.Is(err, sql.ErrNoRows) {
		return crawler.Game{}, crawler.ErrNotFound
	}
	if err != nil {
		return crawler.Game{}, fmt.Errorf("get game: %w", err)
	}
	list, err := decodeList(genres)
	if err != nil {
		return crawler.Game{}, err
	}
	return crawler.Game{Name: name, Genres: list}, nil
}

// Genres lists genres sorted by name.
func (s *Store) Genres(ctx context.Context) ([]crawler.Genre, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, description, aliases FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	var out []crawler.Genre
	for rows.Next() {
		var g crawler.Genre
		var aliases string
		if err := rows.Scan(&g.Name, &g.Description, &aliases); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		if g.Aliases, err = decodeList(aliases); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Genre fetches one genre by exact name.
func (s *Store) Genre(ctx context.Context, name string) (crawler.Genre, error) {
	g := crawler.Genre{Name: name}
	var aliases string
	err := s.db.QueryRowContext(ctx, `SELECT description, aliases FROM genres WHERE name = ?`, name).
		Scan(&g.Description, &aliases)
	if errors.Is(err, sql.ErrNoRows) {
		return crawler.Genre{}, crawler.ErrNotFound
	}
	if err != nil {
		return crawler.Genre{}, fmt.Errorf("get genre: %w", err)
	}
	if g.Aliases, err = decodeList(aliases); err != nil {
		return crawler.Genre{}, err
	}
	return g, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}
