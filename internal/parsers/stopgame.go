package parsers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// StopgameSite is the registry name of stopgame.ru.
const StopgameSite = "stopgame_ru"

// Stopgame searches stopgame.ru and reads the tag links of the game page.
type Stopgame struct {
	session *Session
	baseURL string
}

// NewStopgame builds the stopgame.ru source.
func NewStopgame(opts Options) crawler.SiteParser {
	return &Stopgame{
		session: NewSession(StopgameSite, opts),
		baseURL: opts.BaseURL(StopgameSite, "https://stopgame.ru"),
	}
}

type stopgameSearch struct {
	Results []struct {
		Type  string `json:"type"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

// SiteName implements crawler.SiteParser.
func (p *Stopgame) SiteName() string {
	return StopgameSite
}

// FetchGenres opens the first matching game and collects its tags.
func (p *Stopgame) FetchGenres(ctx context.Context, title string) ([]string, error) {
	endpoint := p.baseURL + "/ajax/search/games/?term=" + url.QueryEscape(title) + "&offset=0&sort=relevance"
	var data stopgameSearch
	if err := p.session.GetJSON(ctx, endpoint, &data); err != nil {
		return nil, err
	}
	for _, game := range data.Results {
		if game.Type != "game" || !crawler.SameGame(title, game.Title) {
			continue
		}
		gameURL, err := resolveURL(endpoint, game.URL)
		if err != nil {
			return nil, err
		}
		doc, err := p.session.GetDocument(ctx, gameURL)
		if err != nil {
			return nil, err
		}
		genres := []string{}
		doc.Find(`a[class*="_tag_"]`).Each(func(_ int, a *goquery.Selection) {
			genres = append(genres, normText(a.Text()))
		})
		return genres, nil
	}
	return []string{}, nil
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
