package parsers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(t *testing.T, site, baseURL string) Options {
	t.Helper()
	return Options{
		UserAgent: "genres-test",
		Timeout:   2 * time.Second,
		ErrorsDir: t.TempDir(),
		BaseURLs:  map[string]string{site: baseURL},
	}
}
