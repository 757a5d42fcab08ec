package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognitivefashion/fashion-cli/internal/api"
)

func newNLSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nls",
		Aliases: []string{"text"},
		Short:   "Natural language search",
		Long:    "Search catalogs with free text such as \"red floral dress under 50\" and inspect how queries are understood.",
	}

	cmd.AddCommand(newNLSSearchCmd())
	cmd.AddCommand(newNLSQueriesCmd())
	cmd.AddCommand(newNLSParseCmd())
	cmd.AddCommand(newNLSSpellCmd())

	return cmd
}

func newNLSSearchCmd() *cobra.Command {
	opts := api.DefaultNLSearchOptions()

	cmd := &cobra.Command{
		Use:   "search <catalog> <query>...",
		Short: "Search a catalog with a natural language query",
		Example: strings.TrimSpace(`
  fashion nls search summer red floral dress
  fashion nls search summer "linen shirt for men" -n 5 --show-queries
`),
		Args: cobra.MinimumNArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if err := checkLimits(opts.MaxResults, opts.MaxBackoffs); err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.NaturalLanguageSearch().Search(cmd.Context(), args[0], joinQuery(args[1:]), &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "max-results", "n", opts.MaxResults, "Maximum number of results")
	cmd.Flags().IntVar(&opts.MaxBackoffs, "max-backoffs", opts.MaxBackoffs, "How many times a query may be relaxed when nothing matches")
	cmd.Flags().BoolVar(&opts.ReturnElasticsearchQueries, "show-queries", opts.ReturnElasticsearchQueries, "Include the generated backend queries")

	return cmd
}

func newNLSQueriesCmd() *cobra.Command {
	opts := api.DefaultElasticsearchQueriesOptions()

	cmd := &cobra.Command{
		Use:     "queries <query>...",
		Aliases: []string{"es"},
		Short:   "Show the backend queries generated for a query",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if err := checkLimits(opts.MaxResults, opts.MaxBackoffs); err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.NaturalLanguageSearch().ElasticsearchQueries(cmd.Context(), joinQuery(args), &opts)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "max-results", "n", opts.MaxResults, "Maximum number of results")
	cmd.Flags().IntVar(&opts.MaxBackoffs, "max-backoffs", opts.MaxBackoffs, "Number of relaxed queries to generate")

	return cmd
}

func newNLSParseCmd() *cobra.Command {
	opts := api.DefaultParseOptions()

	cmd := &cobra.Command{
		Use:   "parse <query>...",
		Short: "Extract fashion entities from a query",
		Example: strings.TrimSpace(`
  fashion nls parse "blue denim jacket"
  fashion nls parse "blue denim jacket" --hyponyms --search-terms -q .entities
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.NaturalLanguageSearch().Parse(cmd.Context(), joinQuery(args), &opts)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}

	cmd.Flags().BoolVar(&opts.IncludeApparelHyponyms, "hyponyms", opts.IncludeApparelHyponyms, "Include narrower apparel terms")
	cmd.Flags().BoolVar(&opts.IncludeApparelHypernyms, "hypernyms", opts.IncludeApparelHypernyms, "Include broader apparel terms")
	cmd.Flags().BoolVar(&opts.ReturnSearchTerms, "search-terms", opts.ReturnSearchTerms, "Include the derived search terms")

	return cmd
}

func newNLSSpellCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "spell <query>...",
		Aliases: []string{"spellcheck"},
		Short:   "Spell-correct a query",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.NaturalLanguageSearch().SpellCorrect(cmd.Context(), joinQuery(args))
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}
}

func checkLimits(maxResults, maxBackoffs int) error {
	if maxResults <= 0 {
		return fmt.Errorf("--max-results must be positive")
	}
	if maxBackoffs < 0 {
		return fmt.Errorf("--max-backoffs must be >= 0")
	}
	return nil
}

// joinQuery joins query words given as separate arguments.
func joinQuery(words []string) string {
	return strings.TrimSpace(strings.Join(words, " "))
}
