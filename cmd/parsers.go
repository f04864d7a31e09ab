package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newParsersCmd creates the 'parsers' subcommand.
func newParsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "Lists the enabled genre sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := a.Registry()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), registry.Describe())
			return nil
		},
	}
}
