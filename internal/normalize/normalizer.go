// Package normalize reconciles raw genre labels from every source into the
// canonical Game and Genre tables.
package normalize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/artifact"
	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
)

// NotifySource names this component in operator notifications.
const NotifySource = "genre_translate"

// RefreshReport describes one translation refresh.
type RefreshReport struct {
	Added      int      `json:"added"`
	Similar    []string `json:"similar"`
	Unresolved []string `json:"unresolved"`
	FirstRun   bool     `json:"first_run"`
	Saved      bool     `json:"saved"`
}

// Report summarizes a full normalization pass.
type Report struct {
	Translations RefreshReport `json:"translations"`
	Genres       int           `json:"genres"`
	GamesUpdated int           `json:"games_updated"`
	DLCFilled    int           `json:"dlc_filled"`
}

// Normalizer owns the translation, genre and game artifacts.
type Normalizer struct {
	store     crawler.Store
	artifacts *artifact.Store
	notifier  crawler.Notifier
	rules     []CompressionRule
	rebuild   bool
	logger    *zap.Logger
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithRules replaces the default compression table.
func WithRules(rules []CompressionRule) Option {
	return func(n *Normalizer) {
		if len(rules) > 0 {
			n.rules = append([]CompressionRule(nil), rules...)
		}
	}
}

// WithRebuild recomputes every game instead of only titles with new sources.
func WithRebuild(rebuild bool) Option {
	return func(n *Normalizer) { n.rebuild = rebuild }
}

// New constructs a Normalizer.
func New(
	store crawler.Store,
	artifacts *artifact.Store,
	notifier crawler.Notifier,
	logger *zap.Logger,
	opts ...Option,
) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{
		store:     store,
		artifacts: artifacts,
		notifier:  notifier,
		rules:     DefaultCompressionRules,
		logger:    logger.Named("normalize"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Run refreshes translations, then regenerates genres and games.
func (n *Normalizer) Run(ctx context.Context) (Report, error) {
	var report Report
	table, refresh, err := n.RefreshTranslations(ctx)
	if err != nil {
		return report, err
	}
	report.Translations = refresh

	genres, err := n.RegenerateGenres(ctx, table)
	if err != nil {
		return report, err
	}
	report.Genres = genres

	updated, filled, err := n.RegenerateGames(ctx, table)
	if err != nil {
		return report, err
	}
	report.GamesUpdated = updated
	report.DLCFilled = filled

	n.logger.Info("normalization finished",
		zap.Int("translations_added", refresh.Added),
		zap.Int("genres", genres),
		zap.Int("games_updated", updated),
		zap.Int("dlc_filled", filled),
	)
	return report, nil
}

// LoadTranslations reads the current translation table.
func (n *Normalizer) LoadTranslations() (Translations, error) {
	table := Translations{}
	if _, err := n.artifacts.Load(TranslationsFile, &table); err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	return table, nil
}

// RefreshTranslations adds every raw genre seen in dumps that is not yet a
// key. A new key copies the value of a resolved key with the same
// similarity key; otherwise it stays unresolved and is reported.
func (n *Normalizer) RefreshTranslations(ctx context.Context) (Translations, RefreshReport, error) {
	var report RefreshReport
	table, err := n.LoadTranslations()
	if err != nil {
		return nil, report, err
	}
	report.FirstRun = len(table) == 0

	distinct, err := n.store.DistinctGenres(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("distinct genres: %w", err)
	}
	for _, raw := range distinct {
		if _, ok := table[raw]; ok {
			continue
		}
		report.Added++
		if similar, ok := table.Similar(raw); ok {
			table[raw] = similar
			report.Similar = append(report.Similar, raw)
			continue
		}
		table[raw] = Unresolved()
		report.Unresolved = append(report.Unresolved, raw)
	}
	metrics.SetUnresolvedTranslations(len(table.Unresolved()))

	if report.Added == 0 {
		return table, report, nil
	}
	n.logger.Info("new raw genres",
		zap.Int("added", report.Added),
		zap.Strings("similar", report.Similar),
		zap.Strings("unresolved", report.Unresolved),
	)
	saved, err := n.artifacts.Save(ctx, TranslationsFile, table)
	if err != nil {
		return nil, report, fmt.Errorf("save translations: %w", err)
	}
	report.Saved = saved

	if !report.FirstRun {
		n.notify(ctx, report)
	}
	return table, report, nil
}

func (n *Normalizer) notify(ctx context.Context, report RefreshReport) {
	if n.notifier == nil || (len(report.Unresolved) == 0 && len(report.Similar) == 0) {
		return
	}
	var b strings.Builder
	if len(report.Unresolved) > 0 {
		fmt.Fprintf(&b, "Unknown genres (%d): %s", len(report.Unresolved), strings.Join(report.Unresolved, ", "))
	}
	if len(report.Similar) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Resolved by similarity (%d): %s", len(report.Similar), strings.Join(report.Similar, ", "))
	}
	if err := n.notifier.Notify(ctx, NotifySource, b.String()); err != nil {
		n.logger.Warn("notification failed", zap.Error(err))
	}
}

// RegenerateGenres rebuilds the canonical genre table from translations and
// upserts every genre. It returns the number of canonical genres.
func (n *Normalizer) RegenerateGenres(ctx context.Context, table Translations) (int, error) {
	descriptions := map[string]string{}
	if _, err := n.artifacts.Load(GenresFile, &descriptions); err != nil {
		return 0, fmt.Errorf("load genres: %w", err)
	}
	genres, added := BuildGenreIndex(table, descriptions)
	if added {
		if _, err := n.artifacts.Save(ctx, GenresFile, descriptions); err != nil {
			return 0, fmt.Errorf("save genres: %w", err)
		}
	}
	for _, genre := range genres {
		if _, err := n.store.UpsertGenre(ctx, genre); err != nil {
			return 0, fmt.Errorf("upsert genre %q: %w", genre.Name, err)
		}
	}
	return len(genres), nil
}

// RegenerateGames recomputes titles whose set of contributing sources changed
// (or every title when rebuilding), fills DLC entries, and upserts every game.
// It returns the number of recomputed titles and of DLC fills.
func (n *Normalizer) RegenerateGames(ctx context.Context, table Translations) (int, int, error) {
	records := map[string]GameRecord{}
	if _, err := n.artifacts.Load(GamesFile, &records); err != nil {
		return 0, 0, fmt.Errorf("load games: %w", err)
	}
	groups, err := n.store.DumpsByTitle(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("dumps by title: %w", err)
	}

	updated := 0
	for _, group := range groups {
		sources := crawler.SortedSet(group.Sites)
		if existing, ok := records[group.Title]; ok && !n.rebuild && crawler.EqualSets(existing.Sources, sources) {
			continue
		}
		records[group.Title] = GameRecord{
			Genres:  CanonicalGenres(group.Genres, table, n.rules, n.logger),
			Sources: sources,
		}
		updated++
	}
	filled := FillDLC(records)
	if updated > 0 || len(filled) > 0 {
		if _, err := n.artifacts.Save(ctx, GamesFile, records); err != nil {
			return 0, 0, fmt.Errorf("save games: %w", err)
		}
	}

	for name, record := range records {
		if _, err := n.store.UpsertGame(ctx, crawler.Game{Name: name, Genres: record.Genres}); err != nil {
			return 0, 0, fmt.Errorf("upsert game %q: %w", name, err)
		}
	}
	return updated, len(filled), nil
}

// MergeTranslations fills unresolved translations from source and saves the
// table when anything changed. It returns the filled keys.
func (n *Normalizer) MergeTranslations(ctx context.Context, source Translations) ([]string, error) {
	table, err := n.LoadTranslations()
	if err != nil {
		return nil, err
	}
	filled := table.Merge(source)
	if len(filled) == 0 {
		return nil, nil
	}
	if _, err := n.artifacts.Save(ctx, TranslationsFile, table); err != nil {
		return nil, fmt.Errorf("save translations: %w", err)
	}
	metrics.SetUnresolvedTranslations(len(table.Unresolved()))
	n.logger.Info("translations merged", zap.Strings("filled", filled))
	return filled, nil
}
