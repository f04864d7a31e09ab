package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestAddDumpIgnoresConflicts(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO dumps").
		WithArgs("stopgame_ru", "Foo", []string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := store.AddDump(context.Background(), crawler.Dump{Site: "stopgame_ru", Title: "Foo"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDumpExists(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("igromania_ru", "Foo").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.DumpExists(context.Background(), "igromania_ru", "Foo")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDumpsByTitleGroupsRows(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT site, name, genres FROM dumps").
		WillReturnRows(pgxmock.NewRows([]string{"site", "name", "genres"}).
			AddRow("b", "Foo", []string{"RPG"}).
			AddRow("a", "Foo", []string{"Action", "RPG"}).
			AddRow("a", "Bar", []string{}))

	groups, err := store.DumpsByTitle(context.Background())
	require.NoError(t, err)
	require.Equal(t, []crawler.TitleDumps{
		{Title: "Bar", Genres: []string{}, Sites: []string{"a"}},
		{Title: "Foo", Genres: []string{"Action", "RPG"}, Sites: []string{"a", "b"}},
	}, groups)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertGameReportsChange(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO games").
		WithArgs("Foo", []string{"Action", "RPG"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO games").
		WithArgs("Foo", []string{"Action", "RPG"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	changed, err := store.UpsertGame(context.Background(), crawler.Game{Name: "Foo", Genres: []string{"RPG", "Action"}})
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = store.UpsertGame(context.Background(), crawler.Game{Name: "Foo", Genres: []string{"Action", "RPG", "RPG"}})
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGenreNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT description, aliases FROM genres").
		WithArgs("Horror").
		WillReturnRows(pgxmock.NewRows([]string{"description", "aliases"}))

	_, err := store.Genre(context.Background(), "Horror")
	require.ErrorIs(t, err, crawler.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertGenrePropagatesErrors(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO genres").
		WithArgs("Action", "", []string{"экшен"}).
		WillReturnError(context.DeadlineExceeded)

	_, err := store.UpsertGenre(context.Background(), crawler.Genre{Name: "Action", Aliases: []string{"экшен"}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStoreWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewStoreWithPool(nil)
	require.Error(t, err)
}
