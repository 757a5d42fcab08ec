package cmd

import (
	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Fetch a random fashion quote",
		Long:  "Fetch a random fashion quote. Useful as a quick check of the gateway URL and API key.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.FashionQuote(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}
}
