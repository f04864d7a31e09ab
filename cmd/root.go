// Package cmd defines the CLI commands of the genres crawler.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/app"
	"github.com/JakeFAU/game-genres-crawler/internal/config"
	"github.com/JakeFAU/game-genres-crawler/internal/logging"
	"github.com/JakeFAU/game-genres-crawler/internal/metrics"
	"github.com/JakeFAU/game-genres-crawler/internal/normalize"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject fakes.
var newApp = app.New

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "genres-crawler",
		Short: "Collects and normalizes video game genres from several sites.",
		Long: `genres-crawler looks up every title of the game catalog on a set of
genre sources, stores what each source reports, and reconciles the raw labels
into canonical games and genres through a translation table.`,
		SilenceUsage: true,

		// Runs before every subcommand: config, logger and services.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return err
			}
			metrics.Init()

			appInstance, err := newApp(cmd.Context(), cfg, logger, appOptions(cmd)...)
			if err != nil {
				_ = logger.Sync()
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				_ = appInstance.Close()
				_ = appInstance.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")

	cmd.AddCommand(
		newCrawlCmd(),
		newNormalizeCmd(),
		newServeCmd(),
		newExportCmd(),
		newImportCmd(),
		newMergeCmd(),
		newParsersCmd(),
	)
	return cmd
}

// appOptions derives App options from the flags of the running command.
func appOptions(cmd *cobra.Command) []app.Option {
	var opts []app.Option
	if f := cmd.Flags().Lookup("rebuild"); f != nil && f.Value.String() == "true" {
		opts = append(opts, app.WithNormalizeOptions(normalize.WithRebuild(true)))
	}
	return opts
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func logCommandDone(a *app.App, name string, fields ...zap.Field) {
	a.Logger.Info(name+" command finished", fields...)
}
