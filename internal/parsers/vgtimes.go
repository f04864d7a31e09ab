package parsers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// VGTimesSite is the registry name of vgtimes.ru.
const VGTimesSite = "vgtimes_ru"

// VGTimes posts to the vgtimes.ru search endpoint, which returns an HTML
// fragment inside JSON. The site expects the home page to be visited first
// so the session carries its cookies.
type VGTimes struct {
	session *Session
	baseURL string

	mu     sync.Mutex
	warmed bool
}

// NewVGTimes builds the vgtimes.ru source.
func NewVGTimes(opts Options) crawler.SiteParser {
	return &VGTimes{
		session: NewSession(VGTimesSite, opts),
		baseURL: opts.BaseURL(VGTimesSite, "https://vgtimes.ru"),
	}
}

type vgtimesSearch struct {
	GamesResult string `json:"games_result"`
}

// SiteName implements crawler.SiteParser.
func (p *VGTimes) SiteName() string {
	return VGTimesSite
}

// FetchGenres returns the genre line of the first matching result.
func (p *VGTimes) FetchGenres(ctx context.Context, title string) ([]string, error) {
	if err := p.warmUp(ctx); err != nil {
		return nil, err
	}

	form := url.Values{
		"action":   {"search2"},
		"query":    {title},
		"ismobile": {""},
		"what":     {"1"},
	}
	var data vgtimesSearch
	if err := p.session.PostForm(ctx, p.baseURL+"/engine/ajax/search.php", form, &data); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(data.GamesResult))
	if err != nil {
		return nil, fmt.Errorf("parse search html: %w", err)
	}

	genres := []string{}
	found := false
	doc.Find(".game_search").EachWithBreak(func(_ int, game *goquery.Selection) bool {
		name := strings.TrimSpace(game.Find(".title").First().Text())
		if !crawler.SameGame(title, name) {
			return true
		}
		found = true
		if line := strings.TrimSpace(game.Find(".genre").First().Text()); line != "" {
			genres = strings.Split(line, ", ")
		}
		return false
	})
	if !found {
		return []string{}, nil
	}
	return genres, nil
}

func (p *VGTimes) warmUp(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	if _, err := p.session.Get(ctx, p.baseURL+"/"); err != nil {
		return fmt.Errorf("warm up: %w", err)
	}
	p.warmed = true
	return nil
}
