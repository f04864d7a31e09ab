package normalize

import (
	"sort"
	"strings"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// GenresFile is the artifact holding genre descriptions.
const GenresFile = "genres.json"

// BuildGenreIndex inverts the translation table into canonical genres with
// their lower-cased aliases. Aliases whose folded form already contains the
// genre's folded name are left out. Descriptions come from descriptions; a genre missing
// from it is added with an empty description. The second result reports
// whether descriptions gained entries.
func BuildGenreIndex(table Translations, descriptions map[string]string) ([]crawler.Genre, bool) {
	aliases := make(map[string]map[string]struct{})
	for raw, value := range table {
		names, err := value.Names()
		if err != nil {
			continue
		}
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			set, ok := aliases[name]
			if !ok {
				set = make(map[string]struct{})
				aliases[name] = set
			}
			set[strings.ToLower(raw)] = struct{}{}
		}
	}

	changed := false
	genres := make([]crawler.Genre, 0, len(aliases))
	for name, set := range aliases {
		own := crawler.FoldKey(name)
		kept := make([]string, 0, len(set))
		for alias := range set {
			if own != "" && strings.Contains(crawler.FoldKey(alias), own) {
				continue
			}
			kept = append(kept, alias)
		}
		sort.Strings(kept)
		description, ok := descriptions[name]
		if !ok {
			descriptions[name] = ""
			changed = true
		}
		genres = append(genres, crawler.Genre{Name: name, Description: description, Aliases: kept})
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	return genres, changed
}
