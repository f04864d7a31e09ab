// Package parsers holds the built-in genre sources and the registry that
// instantiates them. Each source owns one Session: a colly collector with a
// persistent cookie jar, a request timeout and a per-host rate limit.
package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/game-genres-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/game-genres-crawler/internal/policy/ratelimit"
)

const dumpTimeLayout = "2006-01-02_150405"

// Options configure every source session.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	// ErrorsDir receives a dump of every failed exchange. Empty disables dumps.
	ErrorsDir string
	// BaseURLs overrides the site root per source name.
	BaseURLs map[string]string
	// Transport replaces the default HTTP transport.
	Transport http.RoundTripper
	Clock     crawler.Clock
	Logger    *zap.Logger
	// Strict turns unknown exclusions into a configuration error.
	Strict bool
}

// BaseURL returns the configured root for site or fallback.
func (o Options) BaseURL(site, fallback string) string {
	if u, ok := o.BaseURLs[site]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

// Session performs the HTTP exchanges of one source.
type Session struct {
	site      string
	fetcher   *collyfetcher.Fetcher
	errorsDir string
	clock     crawler.Clock
	logger    *zap.Logger
}

// NewSession builds the session used by site.
func NewSession(site string, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter collyfetcher.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(ratelimit.Config{DefaultRPS: opts.RequestsPerSecond, DefaultBurst: 1})
	}
	return &Session{
		site: site,
		fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent: opts.UserAgent,
			Timeout:   opts.Timeout,
			Limiter:   limiter,
			Transport: opts.Transport,
		}),
		errorsDir: opts.ErrorsDir,
		clock:     opts.Clock,
		logger:    logger.Named("session").With(zap.String("site", site)),
	}
}

// Do sends request and returns the response body. A failed exchange is
// written to the errors directory before the error is returned.
func (s *Session) Do(ctx context.Context, request collyfetcher.Request) ([]byte, error) {
	resp, err := s.fetcher.Fetch(ctx, request)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("request failed",
				zap.String("url", request.URL),
				zap.Int("status", resp.StatusCode),
				zap.Error(err),
			)
			s.saveErrorResponse(request, resp)
		}
		return nil, err
	}
	s.logger.Debug("request done",
		zap.String("url", request.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	)
	return resp.Body, nil
}

// Get fetches rawURL.
func (s *Session) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return s.Do(ctx, collyfetcher.Request{Method: http.MethodGet, URL: rawURL})
}

// GetJSON fetches rawURL and decodes the body into v.
func (s *Session) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := s.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	return s.decodeJSON(collyfetcher.Request{Method: http.MethodGet, URL: rawURL}, body, v)
}

// PostForm posts form to rawURL and decodes the JSON reply into v.
func (s *Session) PostForm(ctx context.Context, rawURL string, form url.Values, v any) error {
	request := collyfetcher.Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Form:    form,
		Headers: http.Header{"X-Requested-With": {"XMLHttpRequest"}},
	}
	body, err := s.Do(ctx, request)
	if err != nil {
		return err
	}
	return s.decodeJSON(request, body, v)
}

// GetDocument fetches rawURL and parses it as HTML.
func (s *Session) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := s.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

func (s *Session) decodeJSON(request collyfetcher.Request, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		s.saveErrorResponse(request, collyfetcher.Response{URL: request.URL, StatusCode: http.StatusOK, Body: body})
		return fmt.Errorf("decode json %s: %w", request.URL, err)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_.-]+`)

func (s *Session) saveErrorResponse(request collyfetcher.Request, resp collyfetcher.Response) {
	if s.errorsDir == "" {
		return
	}
	if err := os.MkdirAll(s.errorsDir, 0o755); err != nil {
		s.logger.Warn("create errors dir", zap.Error(err))
		return
	}
	now := time.Now()
	if s.clock != nil {
		now = s.clock.Now()
	}
	name := fmt.Sprintf("%s_%s_%s.dump", s.site, safeFileName(request.URL), now.Format(dumpTimeLayout))
	path := filepath.Join(s.errorsDir, name)
	if err := os.WriteFile(path, dumpExchange(request, resp), 0o644); err != nil {
		s.logger.Warn("write error dump", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("error dump saved", zap.String("path", path))
}

func safeFileName(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = strings.Trim(u.Path, "/")
	}
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if runes := []rune(name); len(runes) > 64 {
		name = string(runes[:64])
	}
	if name == "" {
		return "root"
	}
	return name
}

// dumpExchange renders request lines with "> " and response lines with "< ".
func dumpExchange(request collyfetcher.Request, resp collyfetcher.Response) []byte {
	var b bytes.Buffer
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	fmt.Fprintf(&b, "> %s %s\n", method, request.URL)
	writeHeaders(&b, "> ", request.Headers)
	if len(request.Form) > 0 {
		fmt.Fprintf(&b, "> \n> %s\n", request.Form.Encode())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "< %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	writeHeaders(&b, "< ", resp.Headers)
	b.WriteString("< \n")
	b.Write(resp.Body)
	b.WriteString("\n")
	return b.Bytes()
}

func writeHeaders(b *bytes.Buffer, prefix string, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(b, "%s%s: %s\n", prefix, k, v)
		}
	}
}

// normText cleans a scraped label: trims it, drops trademark symbols and
// applies compatibility composition so non-breaking spaces become spaces
// while letters such as й keep their combining marks.
func normText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(crawler.CleanTitle(s)))
}
