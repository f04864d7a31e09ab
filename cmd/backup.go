package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newExportCmd creates the 'export' subcommand.
func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Writes every dump as a JSON array",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			n, err := a.Backup.Export(cmd.Context(), w)
			if err != nil {
				return err
			}
			logCommandDone(a, "export", zap.Int("dumps", n), zap.String("output", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

// newImportCmd creates the 'import' subcommand.
func newImportCmd() *cobra.Command {
	var object string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Adds the dumps of an export that are not stored yet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			var added int
			switch {
			case object != "":
				added, err = a.Backup.RestoreObject(cmd.Context(), object)
			case len(args) == 1:
				f, openErr := os.Open(args[0])
				if openErr != nil {
					return fmt.Errorf("open %s: %w", args[0], openErr)
				}
				defer f.Close()
				added, err = a.Backup.Restore(cmd.Context(), f)
			default:
				added, err = a.Backup.Restore(cmd.Context(), cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			logCommandDone(a, "import", zap.Int("added", added))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d dumps\n", added)
			return nil
		},
	}
	cmd.Flags().StringVar(&object, "object", "", "restore a backup object from the configured backup store")
	return cmd
}
