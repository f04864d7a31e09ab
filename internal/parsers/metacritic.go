package parsers

import (
	"context"
	"net/url"
	"regexp"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// MetacriticSite is the registry name of metacritic.com. It is excluded by
// default because the site usually rejects the crawler.
const MetacriticSite = "metacritic_com"

var (
	metacriticGame   = regexp.MustCompile(`,type:"game-title",.+?,title:"(?P<title>.+?)",.+?,genres:\[(?P<genres>.+?)],`)
	metacriticGenres = regexp.MustCompile(`name:"(.+?)"`)
)

// Metacritic reads the search page state embedded in the HTML.
type Metacritic struct {
	session *Session
	baseURL string
}

// NewMetacritic builds the metacritic.com source.
func NewMetacritic(opts Options) crawler.SiteParser {
	return &Metacritic{
		session: NewSession(MetacriticSite, opts),
		baseURL: opts.BaseURL(MetacriticSite, "https://www.metacritic.com"),
	}
}

// SiteName implements crawler.SiteParser.
func (p *Metacritic) SiteName() string {
	return MetacriticSite
}

// FetchGenres scans the embedded results for the first matching title.
func (p *Metacritic) FetchGenres(ctx context.Context, title string) ([]string, error) {
	body, err := p.session.Get(ctx, p.baseURL+"/search/"+url.PathEscape(title)+"/")
	if err != nil {
		return nil, err
	}
	titleIdx := metacriticGame.SubexpIndex("title")
	genresIdx := metacriticGame.SubexpIndex("genres")
	for _, m := range metacriticGame.FindAllSubmatch(body, -1) {
		if !crawler.SameGame(title, string(m[titleIdx])) {
			continue
		}
		genres := []string{}
		for _, g := range metacriticGenres.FindAllSubmatch(m[genresIdx], -1) {
			genres = append(genres, string(g[1]))
		}
		return genres, nil
	}
	return []string{}, nil
}
