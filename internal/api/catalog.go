package api

import (
	"context"
	"strings"
)

// Default option values of the catalog endpoints.
const (
	DefaultMaxResults = 12
)

// DeleteCatalogOptions controls catalog deletion.
type DeleteCatalogOptions struct {
	// DeleteImages removes the stored catalog images as well (default true).
	DeleteImages bool
}

func DefaultDeleteCatalogOptions() DeleteCatalogOptions {
	return DeleteCatalogOptions{DeleteImages: true}
}

// TextSearchOptions controls basic text search.
type TextSearchOptions struct {
	MaxResults int
}

func DefaultTextSearchOptions() TextSearchOptions {
	return TextSearchOptions{MaxResults: DefaultMaxResults}
}

// ProductWriteOptions controls product creation and update.
type ProductWriteOptions struct {
	// DownloadImages makes the service fetch every image referenced in the
	// product document (default true).
	DownloadImages bool
}

func DefaultProductWriteOptions() ProductWriteOptions {
	return ProductWriteOptions{DownloadImages: true}
}

// DeleteProductOptions controls product deletion.
type DeleteProductOptions struct {
	// DeleteImages removes the product images as well (default false).
	DeleteImages bool
}

func DefaultDeleteProductOptions() DeleteProductOptions {
	return DeleteProductOptions{}
}

func catalogVars(name string) pathVars {
	return pathVars{"catalog": name}
}

func productVars(name, id string) pathVars {
	return pathVars{"catalog": name, "id": id}
}

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidArgument("%s is required", name)
	}
	return nil
}

// AddMetadata attaches free-form metadata (friendly_name, hero_image_url,
// description, ...) to a catalog, creating the catalog if needed.
func (s CatalogService) AddMetadata(ctx context.Context, name string, data any) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	body, err := jsonBody(data)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, epCatalogMetadata, catalogVars(name), nil, body)
}

// Names lists all catalog names.
func (s CatalogService) Names(ctx context.Context) (*Result, error) {
	return s.call(ctx, epCatalogNames, nil, nil, nil)
}

// Info returns information about a catalog.
func (s CatalogService) Info(ctx context.Context, name string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	return s.call(ctx, epCatalogInfo, catalogVars(name), nil, nil)
}

// Delete removes a catalog.
func (s CatalogService) Delete(ctx context.Context, name string, opts *DeleteCatalogOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	o := DefaultDeleteCatalogOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().boolean("delete_images", o.DeleteImages)
	return s.call(ctx, epCatalogDelete, catalogVars(name), q.values(), nil)
}

// TextSearch runs a basic text search over a catalog.
func (s CatalogService) TextSearch(ctx context.Context, name, queryText string, opts *TextSearchOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	o := DefaultTextSearchOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		text("query_text", queryText).
		integer("max_number_of_results", o.MaxResults)
	return s.call(ctx, epTextSearch, catalogVars(name), q.values(), nil)
}

// AddProduct adds a product document to a catalog.
func (s CatalogService) AddProduct(ctx context.Context, name, id string, data any, opts *ProductWriteOptions) (*Result, error) {
	return s.writeProduct(ctx, epProductAdd, name, id, data, opts)
}

// UpdateProduct replaces a product document in a catalog.
func (s CatalogService) UpdateProduct(ctx context.Context, name, id string, data any, opts *ProductWriteOptions) (*Result, error) {
	return s.writeProduct(ctx, epProductUpdate, name, id, data, opts)
}

func (s CatalogService) writeProduct(ctx context.Context, ep endpoint, name, id string, data any, opts *ProductWriteOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("product id", id); err != nil {
		return nil, err
	}
	o := DefaultProductWriteOptions()
	if opts != nil {
		o = *opts
	}
	body, err := jsonBody(data)
	if err != nil {
		return nil, err
	}
	q := newQuery().boolean("download_images", o.DownloadImages)
	return s.call(ctx, ep, productVars(name, id), q.values(), body)
}

// GetProduct fetches a product. The service answers 202 when the product
// exists (see StatusProductFound).
func (s CatalogService) GetProduct(ctx context.Context, name, id string) (*Result, error) {
	return getProduct(ctx, s.Client, name, id)
}

func getProduct(ctx context.Context, r Requester, name, id string) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("product id", id); err != nil {
		return nil, err
	}
	return r.call(ctx, epProductGet, productVars(name, id), nil, nil)
}

// DeleteProduct removes a product from a catalog.
func (s CatalogService) DeleteProduct(ctx context.Context, name, id string, opts *DeleteProductOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("product id", id); err != nil {
		return nil, err
	}
	o := DefaultDeleteProductOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().boolean("delete_images", o.DeleteImages)
	return s.call(ctx, epProductDelete, productVars(name, id), q.values(), nil)
}
