package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/catalogfile"
)

func newCatalogLoadCmd() *cobra.Command {
	var (
		concurrency int
		perSecond   float64
		noDownload  bool
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "load <catalog> <dir>",
		Short: "Add every product document in a directory",
		Long: strings.TrimSpace(`
Add every .json, .yaml and .yml product document directly inside <dir> to a
catalog. A file may hold one product or a list of products. Each product id
comes from its "id" field or, for single-product files, the file name.

Failures are reported per product and do not stop the others. The command
exits non-zero when any product failed.
`),
		Example: strings.TrimSpace(`
  fashion catalog load summer ./products
  fashion catalog load summer ./products --concurrency 10 --rate 20
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if concurrency <= 0 {
				return fmt.Errorf("--concurrency must be positive")
			}
			if perSecond < 0 {
				return fmt.Errorf("--rate must be >= 0")
			}

			products, err := catalogfile.LoadDir(args[1])
			if err != nil {
				return err
			}
			if len(products) == 0 {
				return fmt.Errorf("no product documents found in %s", args[1])
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			opts := bulkOptions{
				Concurrency: int64(concurrency),
				Progress:    progress && !isJSON(cmd) && !flags.Quiet && !flags.Silent,
				ErrOut:      cmd.ErrOrStderr(),
			}
			if perSecond > 0 {
				opts.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
			}

			catalog := args[0]
			writeOpts := api.ProductWriteOptions{DownloadImages: !noDownload}
			results := runBulk(cmd.Context(), products, opts, func(ctx context.Context, p catalogfile.Product) bulkResult {
				out := bulkResult{ID: p.ID, Source: p.Path}
				res, err := client.Catalog().AddProduct(ctx, catalog, p.ID, p.Data, &writeOpts)
				if err != nil {
					out.Error = err.Error()
					return out
				}
				out.StatusCode = res.StatusCode
				if err := res.Err(); err != nil {
					out.Error = err.Error()
					return out
				}
				out.Success = true
				return out
			})

			succeeded, failed := countResults(results)
			skipped := len(products) - len(results)

			if isJSON(cmd) {
				if err := printOutput(cmd, map[string]any{
					"catalog":   catalog,
					"total":     len(products),
					"succeeded": succeeded,
					"failed":    failed,
					"skipped":   skipped,
					"results":   results,
				}); err != nil {
					return err
				}
			} else {
				f := newFormatter(cmd)
				f.StartTable([]string{"ID", "STATUS", "SOURCE", "ERROR"})
				for _, r := range results {
					status := "ok"
					if !r.Success {
						status = "failed"
					}
					if r.StatusCode != 0 {
						status += " (" + strconv.Itoa(r.StatusCode) + ")"
					}
					f.Row(r.ID, status, r.Source, r.Error)
				}
				if err := f.EndTable(); err != nil {
					return err
				}
				printAction(cmd, "Loaded", fmt.Sprintf("%d of %d products into %s", succeeded, len(products), catalog))
			}

			if failed > 0 || skipped > 0 {
				return fmt.Errorf("%d of %d products failed to load", failed+skipped, len(products))
			}
			return nil
		}),
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", DefaultConcurrency, "Number of concurrent uploads")
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&noDownload, "no-download-images", false, "Do not let the service download the product images")
	cmd.Flags().BoolVar(&progress, "progress", true, "Show progress on stderr")

	return cmd
}
