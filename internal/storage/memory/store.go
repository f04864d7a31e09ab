package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

type dumpKey struct {
	site  string
	title string
}

// Store provides an in-memory crawler.Store for development/testing.
type Store struct {
	mu     sync.RWMutex
	dumps  map[dumpKey]crawler.Dump
	order  []dumpKey
	games  map[string]crawler.Game
	genres map[string]crawler.Genre
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		dumps:  make(map[dumpKey]crawler.Dump),
		games:  make(map[string]crawler.Game),
		genres: make(map[string]crawler.Genre),
	}
}

// DumpExists reports whether (site, title) has been recorded.
func (s *Store) DumpExists(_ context.Context, site, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dumps[dumpKey{site: site, title: title}]
	return ok, nil
}

// AddDump records the dump unless the key already exists.
func (s *Store) AddDump(_ context.Context, dump crawler.Dump) error {
	key := dumpKey{site: dump.Site, title: dump.Title}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dumps[key]; ok {
		return nil
	}
	dump.Genres = append([]string{}, dump.Genres...)
	s.dumps[key] = dump
	s.order = append(s.order, key)
	return nil
}

// DistinctGenres returns every raw genre across all dumps, sorted.
func (s *Store) DistinctGenres(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []string
	for _, d := range s.dumps {
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
func (s *Store) Dumps(_ context.Context) ([]crawler.Dump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.Dump, 0, len(s.order))
	for _, key := range s.order {
		d := s.dumps[key]
		d.Genres = append([]string{}, d.Genres...)
		out = append(out, d)
	}
	return out, nil
}

// CountDumps returns the number of dumps.
func (s *Store) CountDumps(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dumps), nil
}

// UpsertGame stores the game and reports whether it changed.
func (s *Store) UpsertGame(_ context.Context, game crawler.Game) (bool, error) {
	game.Genres = crawler.SortedSet(game.Genres)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.games[game.Name]; ok && crawler.EqualSets(existing.Genres, game.Genres) {
		return false, nil
	}
	s.games[game.Name] = game
	return true, nil
}

// UpsertGenre stores the genre and reports whether it changed.
func (s *Store) UpsertGenre(_ context.Context, genre crawler.Genre) (bool, error) {
	genre.Aliases = crawler.SortedSet(genre.Aliases)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.genres[genre.Name]; ok &&
		existing.Description == genre.Description &&
		crawler.EqualSets(existing.Aliases, genre.Aliases) {
		return false, nil
	}
	s.genres[genre.Name] = genre
	return true, nil
}

// Games lists games sorted by name.
func (s *Store) Games(_ context.Context) ([]crawler.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Game fetches one game by exact name.
func (s *Store) Game(_ context.Context, name string) (crawler.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[name]
	if !ok {
		return crawler.Game{}, crawler.ErrNotFound
	}
	return g, nil
}

// Genres lists genres sorted by name.
func (s *Store) Genres(_ context.Context) ([]crawler.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Genre fetches one genre by exact name.
func (s *Store) Genre(_ context.Context, name string) (crawler.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[name]
	if !ok {
		return crawler.Genre{}, crawler.ErrNotFound
	}
	return g, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
