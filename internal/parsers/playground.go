package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// PlaygroundSite is the registry name of playground.ru.
const PlaygroundSite = "playground_ru"

// Playground searches playground.ru, add-ons included, and reads the genre
// links of the game page.
type Playground struct {
	session *Session
	baseURL string
}

// NewPlayground builds the playground.ru source.
func NewPlayground(opts Options) crawler.SiteParser {
	return &Playground{
		session: NewSession(PlaygroundSite, opts),
		baseURL: opts.BaseURL(PlaygroundSite, "https://www.playground.ru"),
	}
}

type playgroundGame struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SiteName implements crawler.SiteParser.
func (p *Playground) SiteName() string {
	return PlaygroundSite
}

// FetchGenres follows the first matching search result. The API answers
// with an object carrying "message" instead of a list when it rejects the
// query, which counts as not found.
func (p *Playground) FetchGenres(ctx context.Context, title string) ([]string, error) {
	endpoint := p.baseURL + "/api/game.search?query=" + url.QueryEscape(title) + "&include_addons=1"
	var raw json.RawMessage
	if err := p.session.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &failure); err != nil {
			return nil, fmt.Errorf("decode search error: %w", err)
		}
		if failure.Message == "" {
			return nil, fmt.Errorf("unexpected search response: %s", trimmed)
		}
		p.session.logger.Warn("search rejected", zap.String("title", title), zap.String("message", failure.Message))
		return []string{}, nil
	}

	var games []playgroundGame
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	for _, game := range games {
		if !crawler.SameGame(title, game.Name) {
			continue
		}
		gameURL, err := resolveURL(p.baseURL+"/", game.Slug)
		if err != nil {
			return nil, err
		}
		doc, err := p.session.GetDocument(ctx, gameURL)
		if err != nil {
			return nil, err
		}
		genres := []string{}
		doc.Find(".genres > a").Each(func(_ int, a *goquery.Selection) {
			genres = append(genres, strings.Trim(normText(a.Text()), ","))
		})
		return genres, nil
	}
	return []string{}, nil
}
