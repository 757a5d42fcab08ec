package api

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sort options accepted by visual browse and visual search.
const (
	SortVisualSimilarity  = "visual_similarity"
	SortApparelSimilarity = "apparel_similarity"
)

// SortOptions lists the accepted sort_option values.
var SortOptions = []string{SortVisualSimilarity, SortApparelSimilarity}

// DefaultGroupByK is the default neighbour count used by index-time grouping.
const DefaultGroupByK = 5

// ImageContentType is the content type of visual search uploads.
const ImageContentType = "image/jpeg"

// IndexBuildOptions controls visual search index builds.
type IndexBuildOptions struct {
	// PerCategoryIndex builds a separate index per visual_search_category.
	PerCategoryIndex bool
	// FullIndex builds the full index as well (default true).
	FullIndex bool
	// GroupBy enables result grouping. The service ignores it unless
	// FullIndex is set.
	GroupBy bool
	// GroupByK is the neighbour count used for grouping (default 5).
	GroupByK int
}

func DefaultIndexBuildOptions() IndexBuildOptions {
	return IndexBuildOptions{FullIndex: true, GroupByK: DefaultGroupByK}
}

// BrowseOptions controls visual browse.
type BrowseOptions struct {
	MaxResults       int
	PerCategoryIndex bool
	// Categories restricts the browse to these visual search categories.
	Categories []string
	// UseCache lets the service answer from its result cache (default true).
	UseCache   bool
	SortOption string
	// UniqueProducts keeps only the best matching image of each product.
	UniqueProducts bool
}

func DefaultBrowseOptions() BrowseOptions {
	return BrowseOptions{
		MaxResults: DefaultMaxResults,
		UseCache:   true,
		SortOption: SortVisualSimilarity,
	}
}

// SearchOptions controls visual search by uploaded image.
type SearchOptions struct {
	MaxResults       int
	PerCategoryIndex bool
	Categories       []string
	// CategoriesThreshold is the minimum classifier confidence for a
	// predicted category to be used.
	CategoriesThreshold float64
	SortOption          string
	// ReweightSimilarityScores multiplies similarity scores by the
	// normalized category scores (default true).
	ReweightSimilarityScores bool
	// GroupBy groups results by attributes, e.g. {"visual", "color"}.
	GroupBy        []string
	UniqueProducts bool
	// ReturnOriginalPredictions includes the raw classifier predictions.
	ReturnOriginalPredictions bool
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults:               DefaultMaxResults,
		SortOption:               SortVisualSimilarity,
		ReweightSimilarityScores: true,
	}
}

// CategoriesPredictOptions controls visual search category prediction.
type CategoriesPredictOptions struct {
	// ClearCache overwrites categories already present on products.
	ClearCache bool
	// IgnoreNonPrimaryImages predicts from primary images only.
	IgnoreNonPrimaryImages bool
	CategoriesThreshold    float64
}

func DefaultCategoriesPredictOptions() CategoriesPredictOptions {
	return CategoriesPredictOptions{}
}

// IndexBuild starts building the visual search index of a catalog.
func (s VisualSearchService) IndexBuild(ctx context.Context, name string, opts *IndexBuildOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	o := DefaultIndexBuildOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		boolean("per_category_index", o.PerCategoryIndex).
		boolean("full_index", o.FullIndex).
		boolean("group_by", o.GroupBy).
		integer("group_by_k", o.GroupByK)
	return s.call(ctx, epIndexBuild, catalogVars(name), q.values(), nil)
}

// IndexStatus reports the state of the visual search index.
func (s VisualSearchService) IndexStatus(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epIndexStatus, catalogVars(name), nil, nil)
}

// IndexDelete deletes the visual search index.
func (s VisualSearchService) IndexDelete(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epIndexDelete, catalogVars(name), nil, nil)
}

// Browse returns catalog products visually similar to one product image.
func (s VisualSearchService) Browse(ctx context.Context, name, id, imageID string, opts *BrowseOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("product id", id); err != nil {
		return nil, err
	}
	if err := requireArg("image id", imageID); err != nil {
		return nil, err
	}
	o := DefaultBrowseOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		integer("max_number_of_results", o.MaxResults).
		boolean("per_category_index", o.PerCategoryIndex).
		boolean("use_cache", o.UseCache).
		boolean("unique_products", o.UniqueProducts).
		text("sort_option", o.SortOption).
		list("category", o.Categories)
	vars := pathVars{"catalog": name, "id": id, "image_id": imageID}
	return s.call(ctx, epVisualBrowse, vars, q.values(), nil)
}

// Search uploads a JPEG image and returns visually similar catalog products.
// The image is streamed once and not retained. Readers of unknown length are
// sent chunked; use SearchFile to send a Content-Length for files.
func (s VisualSearchService) Search(ctx context.Context, name string, image io.Reader, opts *SearchOptions) (*Result, error) {
	return s.search(ctx, name, image, 0, opts)
}

func (s VisualSearchService) search(ctx context.Context, name string, image io.Reader, size int64, opts *SearchOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if isNilReader(image) {
		return nil, invalidArgument("image is required")
	}
	o := DefaultSearchOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		integer("max_number_of_results", o.MaxResults).
		boolean("per_category_index", o.PerCategoryIndex).
		text("sort_option", o.SortOption).
		number("visual_search_categories_threshold", o.CategoriesThreshold).
		boolean("reweight_similarity_scores", o.ReweightSimilarityScores).
		boolean("unique_products", o.UniqueProducts).
		boolean("return_original_predictions", o.ReturnOriginalPredictions).
		list("category", o.Categories).
		list("group_by", o.GroupBy)
	return s.call(ctx, epVisualSearch, catalogVars(name), q.values(), rawBody(image, ImageContentType, size))
}

// SearchFile is Search with the image read from a file.
func (s VisualSearchService) SearchFile(ctx context.Context, name, path string, opts *SearchOptions) (*Result, error) {
	if err := requireArg("image path", path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, invalidArgument("image %s is not a regular file", path)
	}
	return s.search(ctx, name, f, info.Size(), opts)
}

// isNilReader reports a nil reader, including typed nils of the common
// concrete readers, which would otherwise fail inside the transport.
func isNilReader(r io.Reader) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *os.File:
		return v == nil
	case *bytes.Reader:
		return v == nil
	case *bytes.Buffer:
		return v == nil
	case *strings.Reader:
		return v == nil
	case *bufio.Reader:
		return v == nil
	default:
		return false
	}
}

// Categories lists the visual search categories of a catalog.
func (s VisualSearchService) Categories(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epSearchCategories, catalogVars(name), nil, nil)
}

// BrowseCategories lists the visual browse categories of a catalog.
func (s VisualSearchService) BrowseCategories(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epBrowseCategories, catalogVars(name), nil, nil)
}

// CategoriesPredict starts predicting visual search categories from product
// images.
func (s VisualSearchService) CategoriesPredict(ctx context.Context, name string, opts *CategoriesPredictOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	o := DefaultCategoriesPredictOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		boolean("ignore_non_primary_images", o.IgnoreNonPrimaryImages).
		boolean("clear_cache", o.ClearCache).
		number("visual_search_categories_threshold", o.CategoriesThreshold)
	return s.call(ctx, epCategoriesPredict, catalogVars(name), q.values(), nil)
}

// CategoriesStatus reports the state of a category prediction job.
func (s VisualSearchService) CategoriesStatus(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epCategoriesStatus, catalogVars(name), nil, nil)
}

// CategoriesDelete deletes a category prediction job.
func (s VisualSearchService) CategoriesDelete(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epCategoriesDelete, catalogVars(name), nil, nil)
}
