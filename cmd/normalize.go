package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/normalize"
)

// newNormalizeCmd creates the 'normalize' subcommand.
func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Refreshes translations and regenerates genres and games",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.Normalizer.Run(cmd.Context())
			if err != nil {
				return err
			}
			logCommandDone(a, "normalize", zap.Int("games_updated", report.GamesUpdated))
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Bool("rebuild", false, "recompute every game instead of titles with new sources")
	return cmd
}

// newMergeCmd creates the 'merge' subcommand.
func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <translations.json>",
		Short: "Fills unresolved translations from another translation file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read translations: %w", err)
			}
			source := normalize.Translations{}
			if err := json.Unmarshal(data, &source); err != nil {
				return fmt.Errorf("decode translations %s: %w", args[0], err)
			}
			filled, err := a.Normalizer.MergeTranslations(cmd.Context(), source)
			if err != nil {
				return err
			}
			logCommandDone(a, "merge", zap.Int("filled", len(filled)))
			if filled == nil {
				filled = []string{}
			}
			return writeJSON(cmd.OutOrStdout(), map[string][]string{"filled": filled})
		},
	}
}
