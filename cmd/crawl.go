package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/game-genres-crawler/internal/api"
	"github.com/JakeFAU/game-genres-crawler/internal/app"
	"github.com/JakeFAU/game-genres-crawler/internal/server"
)

// newCrawlCmd creates the 'crawl' subcommand, the long-running service loop.
func newCrawlCmd() *cobra.Command {
	var (
		once  bool
		serve bool
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the backup, crawl and normalize cycle",
		Long: `Backs up the dumps, crawls every enabled source for every catalog title,
then normalizes the results. Without --once the cycle repeats until the
process is interrupted, waiting the cycle interval after a success and the
recovery interval after a failure.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			runner, err := a.NewRunner()
			if err != nil {
				return err
			}
			if once {
				report, err := runner.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if err := runner.Run(ctx); err != nil && !app.IsShutdown(err) {
					return err
				}
				return nil
			})
			if serve {
				g.Go(func() error {
					return server.Serve(ctx, listenAddr(a), apiHandler(a), a.Logger)
				})
			}
			err = g.Wait()
			logCommandDone(a, "crawl", zap.Error(err))
			return err
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and print its report")
	cmd.Flags().BoolVar(&serve, "serve", false, "serve the read API while crawling")
	return cmd
}

// newServeCmd creates the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the read API over the normalized games and genres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return server.Serve(cmd.Context(), listenAddr(a), apiHandler(a), a.Logger)
		},
	}
}

func apiHandler(a *app.App) http.Handler {
	return api.NewServer(a.Store, a.Config.ServerTimeout(), a.Logger).Handler()
}

func listenAddr(a *app.App) string {
	return net.JoinHostPort("", strconv.Itoa(a.Config.Server.Port))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
