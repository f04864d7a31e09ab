package crawler

import "sort"

// Dump is one raw observation of a title at a single source.
// An empty Genres slice means the source was queried and nothing was found,
// or every attempt failed and the pair is permanently skipped.
type Dump struct {
	Site   string   `json:"site"`
	Title  string   `json:"name"`
	Genres []string `json:"genres"`
}

// Sentinel reports whether the dump carries no genres.
func (d Dump) Sentinel() bool {
	return len(d.Genres) == 0
}

// TitleDumps aggregates every dump recorded for one title.
type TitleDumps struct {
	Title  string   `json:"name"`
	Genres []string `json:"genres"`
	Sites  []string `json:"sites"`
}

// Game is the canonical genre set of a title.
type Game struct {
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// Genre is a canonical genre with the raw labels that translate to it.
type Genre struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
}

// CrawlStats summarizes one worker pass over the catalog.
type CrawlStats struct {
	Site      string `json:"site"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Succeeded int    `json:"succeeded"`
	Exhausted int    `json:"exhausted"`
	Errors    int    `json:"errors"`
}

// GroupDumps folds dumps into one TitleDumps per title, sorted by title,
// with sorted unique genres and sites.
func GroupDumps(dumps []Dump) []TitleDumps {
	index := make(map[string]int)
	var out []TitleDumps
	for _, d := range dumps {
		i, ok := index[d.Title]
		if !ok {
			i = len(out)
			index[d.Title] = i
			out = append(out, TitleDumps{Title: d.Title})
		}
		out[i].Genres = append(out[i].Genres, d.Genres...)
		out[i].Sites = append(out[i].Sites, d.Site)
	}
	for i := range out {
		out[i].Genres = SortedSet(out[i].Genres)
		out[i].Sites = SortedSet(out[i].Sites)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}
