package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognitivefashion/fashion-cli/internal/api"
)

// version is set at build time via ldflags
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{
					"version":             version,
					"default_api_version": api.DefaultAPIVersion,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fashion-cli version %s (API %s)\n", version, api.DefaultAPIVersion)
			return nil
		}),
	}
}
