package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/iocontext"
	"github.com/cognitivefashion/fashion-cli/internal/resolve"
)

func newVisualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visual",
		Aliases: []string{"vs"},
		Short:   "Visual search over catalog images",
		Long: strings.TrimSpace(`
Build and query the visual search index of a catalog.

A catalog needs a built index before browse or search return results. Index
builds and category predictions run in the background on the service; poll
them with the matching status command.
`),
	}

	cmd.AddCommand(newVisualIndexCmd())
	cmd.AddCommand(newVisualBrowseCmd())
	cmd.AddCommand(newVisualSearchCmd())
	cmd.AddCommand(newVisualCategoriesCmd())
	cmd.AddCommand(newVisualBrowseCategoriesCmd())
	cmd.AddCommand(newVisualPredictCmd())

	return cmd
}

func newVisualIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "index",
		Aliases: []string{"idx"},
		Short:   "Manage the visual search index",
	}

	cmd.AddCommand(newVisualIndexBuildCmd())
	cmd.AddCommand(catalogCall("status <catalog>", "Show index build status", func(cmd *cobra.Command, client *api.Client, catalog string) (*api.Result, error) {
		return client.VisualSearch().IndexStatus(cmd.Context(), catalog)
	}))
	cmd.AddCommand(newVisualIndexDeleteCmd())

	return cmd
}

func newVisualIndexBuildCmd() *cobra.Command {
	opts := api.DefaultIndexBuildOptions()
	var noFullIndex bool

	cmd := &cobra.Command{
		Use:   "build <catalog>",
		Short: "Start building the visual search index",
		Long: strings.TrimSpace(`
Start building the visual search index of a catalog. The build runs on the
service; check progress with 'fashion visual index status'.

--group-by only takes effect when the full index is built.
`),
		Example: strings.TrimSpace(`
  fashion visual index build summer
  fashion visual index build summer --per-category --group-by --group-by-k 8
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if opts.GroupByK <= 0 {
				return fmt.Errorf("--group-by-k must be positive")
			}
			opts.FullIndex = !noFullIndex
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.VisualSearch().IndexBuild(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().BoolVar(&opts.PerCategoryIndex, "per-category", opts.PerCategoryIndex, "Build one index per visual search category")
	cmd.Flags().BoolVar(&noFullIndex, "no-full-index", false, "Skip the full catalog index")
	cmd.Flags().BoolVar(&opts.GroupBy, "group-by", opts.GroupBy, "Precompute result grouping")
	cmd.Flags().IntVar(&opts.GroupByK, "group-by-k", opts.GroupByK, "Neighbour count used for grouping")

	return cmd
}

func newVisualIndexDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <catalog>",
		Short: "Delete the visual search index",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete the visual search index of %q?", args[0]))
			if err != nil || !ok {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.VisualSearch().IndexDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}
}

func newVisualBrowseCmd() *cobra.Command {
	opts := api.DefaultBrowseOptions()
	var (
		categories string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "browse <catalog> <id> <image-id>",
		Short: "Find products that look like a catalog image",
		Example: strings.TrimSpace(`
  fashion visual browse summer p1 front
  fashion visual browse summer p1 front --category tops,dresses --sort apparel --unique-products
`),
		Args: cobra.ExactArgs(3),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if opts.MaxResults <= 0 {
				return fmt.Errorf("--max-results must be positive")
			}
			sortOption, err := resolveSortOption(opts.SortOption)
			if err != nil {
				return err
			}
			opts.SortOption = sortOption
			opts.Categories = splitCommaList(categories)
			opts.UseCache = !noCache

			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.VisualSearch().Browse(cmd.Context(), args[0], args[1], args[2], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "max-results", "n", opts.MaxResults, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.PerCategoryIndex, "per-category", opts.PerCategoryIndex, "Use the per-category index")
	cmd.Flags().StringVar(&categories, "category", "", "Comma-separated visual search categories to search in")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the service result cache")
	cmd.Flags().StringVar(&opts.SortOption, "sort", opts.SortOption, "Sort option: "+strings.Join(api.SortOptions, "|"))
	cmd.Flags().BoolVar(&opts.UniqueProducts, "unique-products", opts.UniqueProducts, "Return each product at most once")

	return cmd
}

func newVisualSearchCmd() *cobra.Command {
	opts := api.DefaultSearchOptions()
	var (
		categories string
		groupBy    string
		noReweight bool
	)

	cmd := &cobra.Command{
		Use:   "search <catalog> <image>",
		Short: "Find products that look like a JPEG image",
		Long: strings.TrimSpace(`
Upload a JPEG image and list the catalog products that look like it.
Use - as the image to read it from stdin.
`),
		Example: strings.TrimSpace(`
  fashion visual search summer ./dress.jpg
  curl -s https://example.com/dress.jpg | fashion visual search summer -
  fashion visual search summer ./dress.jpg --group-by visual,color --threshold 0.3
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if opts.MaxResults <= 0 {
				return fmt.Errorf("--max-results must be positive")
			}
			if opts.CategoriesThreshold < 0 || opts.CategoriesThreshold > 1 {
				return fmt.Errorf("--threshold must be between 0 and 1")
			}
			sortOption, err := resolveSortOption(opts.SortOption)
			if err != nil {
				return err
			}
			opts.SortOption = sortOption
			opts.Categories = splitCommaList(categories)
			opts.GroupBy = splitCommaList(groupBy)
			opts.ReweightSimilarityScores = !noReweight

			client, err := getClient()
			if err != nil {
				return err
			}
			var res *api.Result
			if args[1] == "-" {
				res, err = client.VisualSearch().Search(cmd.Context(), args[0], iocontext.GetIO(cmd.Context()).In, &opts)
			} else {
				res, err = client.VisualSearch().SearchFile(cmd.Context(), args[0], args[1], &opts)
			}
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "max-results", "n", opts.MaxResults, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.PerCategoryIndex, "per-category", opts.PerCategoryIndex, "Use the per-category index")
	cmd.Flags().StringVar(&categories, "category", "", "Comma-separated visual search categories to search in")
	cmd.Flags().Float64Var(&opts.CategoriesThreshold, "threshold", opts.CategoriesThreshold, "Minimum category confidence (0-1)")
	cmd.Flags().StringVar(&opts.SortOption, "sort", opts.SortOption, "Sort option: "+strings.Join(api.SortOptions, "|"))
	cmd.Flags().BoolVar(&noReweight, "no-reweight", false, "Do not reweight similarity scores by category confidence")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Comma-separated grouping attributes, e.g. visual,color")
	cmd.Flags().BoolVar(&opts.UniqueProducts, "unique-products", opts.UniqueProducts, "Return each product at most once")
	cmd.Flags().BoolVar(&opts.ReturnOriginalPredictions, "original-predictions", opts.ReturnOriginalPredictions, "Include raw category predictions")

	return cmd
}

func newVisualCategoriesCmd() *cobra.Command {
	return catalogCall("categories <catalog>", "List the visual search categories of a catalog", func(cmd *cobra.Command, client *api.Client, catalog string) (*api.Result, error) {
		return client.VisualSearch().Categories(cmd.Context(), catalog)
	})
}

func newVisualBrowseCategoriesCmd() *cobra.Command {
	return catalogCall("browse-categories <catalog>", "List the categories usable with visual browse", func(cmd *cobra.Command, client *api.Client, catalog string) (*api.Result, error) {
		return client.VisualSearch().BrowseCategories(cmd.Context(), catalog)
	})
}

func newVisualPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict visual search categories for catalog products",
	}

	cmd.AddCommand(newVisualPredictStartCmd())
	cmd.AddCommand(catalogCall("status <catalog>", "Show category prediction status", func(cmd *cobra.Command, client *api.Client, catalog string) (*api.Result, error) {
		return client.VisualSearch().CategoriesStatus(cmd.Context(), catalog)
	}))
	cmd.AddCommand(newVisualPredictDeleteCmd())

	return cmd
}

func newVisualPredictStartCmd() *cobra.Command {
	opts := api.DefaultCategoriesPredictOptions()

	cmd := &cobra.Command{
		Use:     "start <catalog>",
		Aliases: []string{"run"},
		Short:   "Start predicting categories for every product image",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if opts.CategoriesThreshold < 0 || opts.CategoriesThreshold > 1 {
				return fmt.Errorf("--threshold must be between 0 and 1")
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.VisualSearch().CategoriesPredict(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().BoolVar(&opts.ClearCache, "clear-cache", opts.ClearCache, "Overwrite categories already on products")
	cmd.Flags().BoolVar(&opts.IgnoreNonPrimaryImages, "primary-only", opts.IgnoreNonPrimaryImages, "Predict from primary images only")
	cmd.Flags().Float64Var(&opts.CategoriesThreshold, "threshold", opts.CategoriesThreshold, "Minimum category confidence (0-1)")

	return cmd
}

func newVisualPredictDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <catalog>",
		Short: "Delete predicted categories",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete predicted categories of %q?", args[0]))
			if err != nil || !ok {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.VisualSearch().CategoriesDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}
}

// catalogCall builds a command that takes a single catalog argument and
// prints the result of one call.
func catalogCall(use, short string, call func(*cobra.Command, *api.Client, string) (*api.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := call(cmd, client, args[0])
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}
}

// resolveSortOption accepts a sort option or an unambiguous abbreviation of
// one, e.g. "apparel".
func resolveSortOption(value string) (string, error) {
	name, err := resolve.Best(strings.TrimSpace(value), api.SortOptions)
	if err != nil {
		return "", api.NewValidationError("sort option", value, api.SortOptions)
	}
	return name, nil
}
