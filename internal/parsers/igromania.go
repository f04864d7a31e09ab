package parsers

import (
	"context"
	"net/url"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// IgromaniaSite is the registry name of igromania.ru.
const IgromaniaSite = "igromania_ru"

// Igromania queries the igromania.ru search API, which embeds genres in
// every search result.
type Igromania struct {
	session *Session
	baseURL string
}

// NewIgromania builds the igromania.ru source.
func NewIgromania(opts Options) crawler.SiteParser {
	return &Igromania{
		session: NewSession(IgromaniaSite, opts),
		baseURL: opts.BaseURL(IgromaniaSite, "https://www.igromania.ru"),
	}
}

type igromaniaSearch struct {
	Results []struct {
		Name   string `json:"name"`
		Genres []struct {
			Name string `json:"name"`
		} `json:"genres"`
	} `json:"results"`
}

// SiteName implements crawler.SiteParser.
func (p *Igromania) SiteName() string {
	return IgromaniaSite
}

// FetchGenres returns the genres of the first result whose name matches.
func (p *Igromania) FetchGenres(ctx context.Context, title string) ([]string, error) {
	endpoint := p.baseURL + "/api/v2/search/games/?q=" + url.QueryEscape(title)
	var data igromaniaSearch
	if err := p.session.GetJSON(ctx, endpoint, &data); err != nil {
		return nil, err
	}
	for _, game := range data.Results {
		if !crawler.SameGame(title, game.Name) {
			continue
		}
		genres := make([]string, 0, len(game.Genres))
		for _, g := range game.Genres {
			genres = append(genres, g.Name)
		}
		return genres, nil
	}
	return []string{}, nil
}
