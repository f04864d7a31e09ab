package normalize

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

// GamesFile is the artifact holding the canonical genres of every title.
const GamesFile = "games.json"

// GameRecord is the games.json entry for one title.
type GameRecord struct {
	Genres  []string `json:"genres"`
	Sources []string `json:"sources"`
}

// dlcMarker matches a parenthesized tag such as "(DLC)" or "(Remastered)".
var dlcMarker = regexp.MustCompile(`\([\p{L}\p{N}_]+\)`)

// Translate maps raw labels through the table. Unresolved and empty values
// are skipped; unsupported values are logged and skipped.
func Translate(raw []string, table Translations, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out []string
	for _, label := range raw {
		value, ok := table[label]
		if !ok {
			continue
		}
		names, err := value.Names()
		if err != nil {
			if errors.Is(err, crawler.ErrUnsupportedTranslation) {
				logger.Warn("unsupported translation value skipped", zap.String("genre", label), zap.Error(err))
			}
			continue
		}
		for _, name := range names {
			if strings.TrimSpace(name) != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// CanonicalGenres runs the full per-title pipeline: translate, compress,
// drop partial duplicates. The result is sorted and unique.
func CanonicalGenres(raw []string, table Translations, rules []CompressionRule, logger *zap.Logger) []string {
	translated := crawler.SortedSet(Translate(raw, table, logger))
	return RemovePartialDuplicates(Compress(translated, rules))
}

// FillDLC gives a genre-less title carrying a parenthesized tag the genres
// of the longest other title whose similarity key prefixes its own.
// It returns the names that were filled, sorted.
func FillDLC(games map[string]GameRecord) []string {
	names := make([]string, 0, len(games))
	for name := range games {
		names = append(names, name)
	}
	sort.Strings(names)

	var filled []string
	for _, name := range names {
		record := games[name]
		if len(record.Genres) > 0 || !dlcMarker.MatchString(name) {
			continue
		}
		key := crawler.FoldKey(name)
		best := ""
		for _, other := range names {
			if other == name || len(games[other].Genres) == 0 {
				continue
			}
			otherKey := crawler.FoldKey(other)
			if otherKey == "" || !strings.HasPrefix(key, otherKey) {
				continue
			}
			if len(other) > len(best) {
				best = other
			}
		}
		if best == "" {
			continue
		}
		record.Genres = append([]string(nil), games[best].Genres...)
		games[name] = record
		filled = append(filled, name)
	}
	return filled
}
