package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

func TestStoreAddDumpIsWriteOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.AddDump(ctx, crawler.Dump{Site: "a", Title: "Foo", Genres: []string{"RPG"}}))
	require.NoError(t, store.AddDump(ctx, crawler.Dump{Site: "a", Title: "Foo", Genres: []string{"Shooter"}}))

	exists, err := store.DumpExists(ctx, "a", "Foo")
	require.NoError(t, err)
	require.True(t, exists)

	dumps, err := store.Dumps(ctx)
	require.NoError(t, err)
	require.Equal(t, []crawler.Dump{{Site: "a", Title: "Foo", Genres: []string{"RPG"}}}, dumps)
}

func TestStoreGroupsDumpsByTitle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.AddDump(ctx, crawler.Dump{Site: "b", Title: "Foo", Genres: []string{"RPG", "Action"}}))
	require.NoError(t, store.AddDump(ctx, crawler.Dump{Site: "a", Title: "Foo", Genres: []string{"RPG"}}))
	require.NoError(t, store.AddDump(ctx, crawler.Dump{Site: "a", Title: "Bar"}))

	groups, err := store.DumpsByTitle(ctx)
	require.NoError(t, err)
	require.Equal(t, []crawler.TitleDumps{
		{Title: "Bar", Genres: []string{}, Sites: []string{"a"}},
		{Title: "Foo", Genres: []string{"Action", "RPG"}, Sites: []string{"a", "b"}},
	}, groups)

	distinct, err := store.DistinctGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Action", "RPG"}, distinct)

	count, err := store.CountDumps(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestStoreUpsertReportsChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()

	changed, err := store.UpsertGame(ctx, crawler.Game{Name: "Foo", Genres: []string{"RPG", "Action"}})
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = store.UpsertGame(ctx, crawler.Game{Name: "Foo", Genres: []string{"Action", "RPG"}})
	require.NoError(t, err)
	require.False(t, changed)

	game, err := store.Game(ctx, "Foo")
	require.NoError(t, err)
	require.Equal(t, []string{"Action", "RPG"}, game.Genres)

	_, err = store.Game(ctx, "Missing")
	require.ErrorIs(t, err, crawler.ErrNotFound)

	changed, err = store.UpsertGenre(ctx, crawler.Genre{Name: "RPG", Aliases: []string{"ролевая"}})
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = store.UpsertGenre(ctx, crawler.Genre{Name: "RPG", Description: "Role-playing", Aliases: []string{"ролевая"}})
	require.NoError(t, err)
	require.True(t, changed)

	genres, err := store.Genres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	require.Equal(t, "Role-playing", genres[0].Description)
	_, err = store.Genre(ctx, "Missing")
	require.ErrorIs(t, err, crawler.ErrNotFound)
}

func TestStoreConcurrentWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	var wg sync.WaitGroup
	for _, site := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(site string) {
			defer wg.Done()
			for _, title := range []string{"Foo", "Bar", "Baz"} {
				_ = store.AddDump(ctx, crawler.Dump{Site: site, Title: title, Genres: []string{site}})
			}
		}(site)
	}
	wg.Wait()

	count, err := store.CountDumps(ctx)
	require.NoError(t, err)
	require.Equal(t, 12, count)
}
