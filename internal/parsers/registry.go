package parsers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/logging"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
)

// Factory builds one live source.
type Factory func(opts Options) crawler.SiteParser

// Builtin lists every source compiled into the binary.
var Builtin = map[string]Factory{
	IgromaniaSite:  NewIgromania,
	StopgameSite:   NewStopgame,
	PlaygroundSite: NewPlayground,
	VGTimesSite:    NewVGTimes,
	MetacriticSite: NewMetacritic,
}

// Registry holds one instrumented instance per enabled source.
type Registry struct {
	parsers []crawler.SiteParser
	kinds   map[string]string
}

// NewRegistry instantiates every factory whose site is not excluded.
// An exclusion naming an unknown site fails only when opts.Strict is set.
func NewRegistry(factories map[string]Factory, exclude []string, opts Options, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, site := range exclude {
		site = strings.TrimSpace(site)
		if _, ok := factories[site]; !ok {
			if opts.Strict {
				return nil, &crawler.ConfigurationError{
					Field:  "crawler.exclude_sites",
					Reason: fmt.Sprintf("unknown site %q", site),
				}
			}
			logger.Warn("ignoring unknown excluded site", zap.String("site", site))
			continue
		}
		excluded[site] = struct{}{}
	}

	names := make([]string, 0, len(factories))
	for name := range factories {
		if _, skip := excluded[name]; !skip {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	r := &Registry{kinds: make(map[string]string, len(names))}
	for _, name := range names {
		siteOpts := opts
		siteOpts.Logger = logger
		parser := factories[name](siteOpts)
		if parser.SiteName() != name {
			return nil, &crawler.ConfigurationError{
				Field:  "parsers",
				Reason: fmt.Sprintf("factory %q built parser %q", name, parser.SiteName()),
			}
		}
		r.kinds[name] = fmt.Sprintf("%T", parser)
		r.parsers = append(r.parsers, &instrumented{
			inner:  parser,
			logger: logging.ForSite(logger, "parser", name),
		})
	}
	return r, nil
}

// List returns the enabled parsers sorted by site name.
func (r *Registry) List() []crawler.SiteParser {
	return append([]crawler.SiteParser(nil), r.parsers...)
}

// Describe renders the enabled parsers as an aligned table.
func (r *Registry) Describe() string {
	width := 0
	for _, p := range r.parsers {
		if n := len(p.SiteName()); n > width {
			width = n
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Parsers (%d):", len(r.parsers))
	for _, p := range r.parsers {
		fmt.Fprintf(&b, "\n    %-*s : %s", width, p.SiteName(), r.kinds[p.SiteName()])
	}
	return b.String()
}

// instrumented cleans results, types errors and records metrics.
type instrumented struct {
	inner  crawler.SiteParser
	logger *zap.Logger
}

func (p *instrumented) SiteName() string {
	return p.inner.SiteName()
}

func (p *instrumented) FetchGenres(ctx context.Context, title string) ([]string, error) {
	site := p.inner.SiteName()
	start := time.Now()
	p.logger.Info("searching", zap.String("title", title))

	raw, err := p.inner.FetchGenres(ctx, title)
	if err != nil {
		metrics.ObserveFetch(site, metrics.StatusFailed, time.Since(start))
		return nil, crawler.NewFetchError(site, title, err)
	}

	genres := crawler.CleanGenres(raw)
	status := metrics.StatusFound
	if len(genres) == 0 {
		status = metrics.StatusEmpty
		p.logger.Info("game not found", zap.String("title", title))
	}
	metrics.ObserveFetch(site, status, time.Since(start))
	p.logger.Info("genres", zap.String("title", title), zap.Strings("genres", genres))
	return genres, nil
}
