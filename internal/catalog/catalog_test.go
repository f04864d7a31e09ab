package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	collyfetcher "github.com/JakeFAU/game-genres-crawler/internal/fetcher/colly"
)

func TestParseList(t *testing.T) {
	t.Parallel()

	got := ParseList([]string{" Foo ", "Bar™", "", "Foo", "  "})
	require.Equal(t, []string{"Bar", "Foo"}, got)
	require.NotNil(t, ParseList(nil))
}

func TestStatic(t *testing.T) {
	t.Parallel()

	titles, err := Static{"Dead Space", "Bar"}.Titles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Bar", "Dead Space"}, titles)
}

func TestFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "games.txt")
	require.NoError(t, os.WriteFile(path, []byte("# wishlist\nHellgate: London\n\n  Twin Sector \nHellgate: London\n"), 0o600))

	titles, err := File{Path: path}.Titles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Hellgate: London", "Twin Sector"}, titles)

	_, err = File{Path: filepath.Join(t.TempDir(), "missing.txt")}.Titles(context.Background())
	require.Error(t, err)
}

func TestURLPlainText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Foo\nBar\n"))
	}))
	defer srv.Close()

	provider := URL{Fetcher: collyfetcher.New(collyfetcher.Config{Timeout: time.Second}), Address: srv.URL}
	titles, err := provider.Titles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Bar", "Foo"}, titles)
}

func TestURLWithSelector(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<ul><li class="game"><a>Foo</a></li><li class="game"><a>Baz®</a></li><li><a>Menu</a></li></ul>`))
	}))
	defer srv.Close()

	provider := URL{
		Fetcher:      collyfetcher.New(collyfetcher.Config{Timeout: time.Second}),
		Address:      srv.URL,
		LinkSelector: "li.game > a",
	}
	titles, err := provider.Titles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Baz", "Foo"}, titles)
}

func TestURLFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := URL{Fetcher: collyfetcher.New(collyfetcher.Config{}), Address: srv.URL}.Titles(context.Background())
	require.Error(t, err)
}
