package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/catalogfile"
	"github.com/cognitivefashion/fashion-cli/internal/resolve"
)

// errPartialCrop is returned when only some of the crop flags are set.
var errPartialCrop = errors.New("--x, --y, --width and --height must be given together")

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"catalogs", "cat"},
		Short:   "Manage catalogs and products",
	}

	cmd.AddCommand(newCatalogNamesCmd())
	cmd.AddCommand(newCatalogInfoCmd())
	cmd.AddCommand(newCatalogDeleteCmd())
	cmd.AddCommand(newCatalogMetadataCmd())
	cmd.AddCommand(newCatalogSearchCmd())
	cmd.AddCommand(newProductCmd())
	cmd.AddCommand(newCatalogLoadCmd())

	return cmd
}

func newCatalogNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "names",
		Aliases: []string{"list", "ls"},
		Short:   "List catalog names",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().Names(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}
}

func newCatalogInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <catalog>",
		Short: "Show catalog information",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}
}

func newCatalogDeleteCmd() *cobra.Command {
	opts := api.DefaultDeleteCatalogOptions()
	var keepImages bool

	cmd := &cobra.Command{
		Use:   "delete <catalog>",
		Short: "Delete a catalog",
		Long:  "Delete a catalog and, unless --keep-images is set, its stored images.",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete catalog %q?", args[0]))
			if err != nil || !ok {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			opts.DeleteImages = !keepImages
			res, err := client.Catalog().Delete(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().BoolVar(&keepImages, "keep-images", false, "Keep the catalog images on the server")

	return cmd
}

func newCatalogMetadataCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "metadata <catalog>",
		Short: "Add metadata to a catalog",
		Long:  "Attach metadata such as friendly_name, hero_image_url or description to a catalog, creating it if needed.",
		Example: strings.TrimSpace(`
  fashion catalog metadata summer --data '{"friendly_name":"Summer 2026"}'
  fashion catalog metadata summer --data @metadata.json
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			body, err := readJSONValue(cmd, "data", data)
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().AddMetadata(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Metadata as JSON, @file or - for stdin")

	return cmd
}

func newCatalogSearchCmd() *cobra.Command {
	opts := api.DefaultTextSearchOptions()

	cmd := &cobra.Command{
		Use:   "search <catalog> <query>...",
		Short: "Basic text search over a catalog",
		Args:  cobra.MinimumNArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if opts.MaxResults <= 0 {
				return fmt.Errorf("--max-results must be positive")
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().TextSearch(cmd.Context(), args[0], strings.Join(args[1:], " "), &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "max-results", "n", opts.MaxResults, "Maximum number of results")

	return cmd
}

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"products", "p"},
		Short:   "Manage products in a catalog",
	}

	cmd.AddCommand(newProductWriteCmd("add", "Add a product to a catalog"))
	cmd.AddCommand(newProductWriteCmd("update", "Replace a product in a catalog"))
	cmd.AddCommand(newProductGetCmd())
	cmd.AddCommand(newProductDeleteCmd())
	cmd.AddCommand(newProductImageCmd())

	return cmd
}

func newProductWriteCmd(use, short string) *cobra.Command {
	var (
		data       string
		file       string
		noDownload bool
	)

	cmd := &cobra.Command{
		Use:   use + " <catalog> [id]",
		Short: short,
		Long: strings.TrimSpace(`
The product document comes from --data (JSON, @file or - for stdin) or from
--file (JSON or YAML). The id argument may be omitted when the document has
an "id" field.
`),
		Args: cobra.RangeArgs(1, 2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if (data == "") == (file == "") {
				return fmt.Errorf("exactly one of --data or --file is required")
			}

			var id string
			if len(args) > 1 {
				id = args[1]
			}
			var doc any
			if file != "" {
				products, err := catalogfile.LoadFile(file)
				if err != nil {
					return err
				}
				if len(products) != 1 {
					return fmt.Errorf("--file must hold a single product (found %d); use 'fashion catalog load' for batches", len(products))
				}
				doc = products[0].Data
				if id == "" {
					id = products[0].ID
				}
			} else {
				v, err := readJSONValue(cmd, "data", data)
				if err != nil {
					return err
				}
				doc = v
				if id == "" {
					if m, ok := v.(map[string]any); ok {
						if s, ok := m["id"].(string); ok {
							id = s
						} else if n, ok := m["id"].(float64); ok {
							id = strconv.FormatFloat(n, 'f', -1, 64)
						}
					}
				}
			}
			if strings.TrimSpace(id) == "" {
				return fmt.Errorf("product id is required (argument or \"id\" field)")
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			opts := api.ProductWriteOptions{DownloadImages: !noDownload}
			var res *api.Result
			if use == "add" {
				res, err = client.Catalog().AddProduct(cmd.Context(), args[0], id, doc, &opts)
			} else {
				res, err = client.Catalog().UpdateProduct(cmd.Context(), args[0], id, doc, &opts)
			}
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		}),
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Product document as JSON, @file or - for stdin")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Product document file (JSON or YAML)")
	cmd.Flags().BoolVar(&noDownload, "no-download-images", false, "Do not let the service download the product images")

	return cmd
}

func newProductGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <catalog> <id>",
		Short: "Fetch a product",
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().GetProduct(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}
}

func newProductDeleteCmd() *cobra.Command {
	opts := api.DefaultDeleteProductOptions()

	cmd := &cobra.Command{
		Use:   "delete <catalog> <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete product %q from %q?", args[1], args[0]))
			if err != nil || !ok {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().DeleteProduct(cmd.Context(), args[0], args[1], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res))
		}),
	}

	cmd.Flags().BoolVar(&opts.DeleteImages, "delete-images", opts.DeleteImages, "Also delete the product images")

	return cmd
}

func newProductImageCmd() *cobra.Command {
	var (
		opts api.ImageURLOptions
		crop api.CropBox
	)

	cmd := &cobra.Command{
		Use:   "image <catalog> <id>",
		Short: "Get a signed URL for a product image",
		Long: strings.TrimSpace(`
Fetch a product and print a directly usable gateway URL for one of its images.
Without --image-id the first image of the product is used. --x, --y, --width
and --height crop the image and must be given together.
`),
		Example: strings.TrimSpace(`
  fashion catalog product image summer p1
  fashion catalog product image summer p1 --image-id front --x 10 --y 20 --width 300 --height 400
  fashion catalog product image summer p1 -q .image_url_local
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, name := range []string{"x", "y", "width", "height"} {
				if cmd.Flags().Changed(name) {
					set++
				}
			}
			switch set {
			case 0:
			case 4:
				if err := crop.Validate(); err != nil {
					return err
				}
				opts.Crop = &crop
			default:
				return errPartialCrop
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			res, err := client.Catalog().ImageURL(cmd.Context(), args[0], args[1], &opts)
			if err != nil {
				return err
			}
			return withCatalogHint(cmd.Context(), client, args[0], printResult(cmd, res.Result))
		}),
	}

	cmd.Flags().StringVar(&opts.ImageID, "image-id", "", "Image id (default: first image of the product)")
	cmd.Flags().BoolVar(&opts.ReturnProductInfo, "product-info", false, "Include the product document")
	cmd.Flags().IntVar(&crop.TopLeftX, "x", 0, "Crop box top-left x")
	cmd.Flags().IntVar(&crop.TopLeftY, "y", 0, "Crop box top-left y")
	cmd.Flags().IntVar(&crop.Width, "width", 0, "Crop box width")
	cmd.Flags().IntVar(&crop.Height, "height", 0, "Crop box height")

	return cmd
}

// withCatalogHint adds close catalog names to a 404 error. The lookup is
// best effort; any failure leaves err unchanged.
func withCatalogHint(ctx context.Context, client *api.Client, catalog string, err error) error {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return err
	}
	res, lookupErr := client.Catalog().Names(ctx)
	if lookupErr != nil || !res.OK() {
		return err
	}
	names := catalogNames(res.Body)
	for _, name := range names {
		if name == catalog {
			return err
		}
	}
	suggestions := resolve.Suggest(catalog, names, 3)
	if len(suggestions) == 0 {
		return err
	}
	return &hintError{err: err, hint: fmt.Sprintf("Did you mean catalog %s?", strings.Join(suggestions, ", "))}
}

// catalogNames pulls catalog names out of a catalog_names response: either
// a list of strings or an object holding one.
func catalogNames(body any) []string {
	switch v := body.(type) {
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if names := catalogNames(v[k]); len(names) > 0 {
				return names
			}
		}
	}
	return nil
}
