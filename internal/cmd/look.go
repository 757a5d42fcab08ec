package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newLookCmd() *cobra.Command {
	var gender string

	cmd := &cobra.Command{
		Use:     "look <query>...",
		Aliases: []string{"ctl", "complete-the-look"},
		Short:   "Suggest items that complete an outfit",
		Long: strings.TrimSpace(`
Describe an item or outfit in plain text and get recommendations for the
pieces that complete the look. Without --gender the service decides.
`),
		Example: strings.TrimSpace(`
  fashion look white linen shirt
  fashion look "black leather jacket" --gender female
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.CompleteTheLook().Recommendation(cmd.Context(), joinQuery(args), strings.TrimSpace(gender))
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}

	cmd.Flags().StringVarP(&gender, "gender", "g", "", "Gender to recommend for, e.g. male or female")

	return cmd
}
