package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestVisualSearchEndpoints(t *testing.T) {
	runEndpointCases(t, []endpointCase{
		{
			name: "index build defaults",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().IndexBuild(ctx, "summer", nil)
			},
			method: http.MethodPost,
			path:   "/v1/catalog/summer/visual_search_index",
			query: map[string]string{
				"per_category_index": "false",
				"full_index":         "true",
				"group_by":           "false",
				"group_by_k":         "5",
			},
		},
		{
			name: "index build per category with grouping",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().IndexBuild(ctx, "summer", &IndexBuildOptions{
					PerCategoryIndex: true, FullIndex: true, GroupBy: true, GroupByK: 8,
				})
			},
			method: http.MethodPost,
			path:   "/v1/catalog/summer/visual_search_index",
			query: map[string]string{
				"per_category_index": "true",
				"full_index":         "true",
				"group_by":           "true",
				"group_by_k":         "8",
			},
		},
		{
			name:   "index status",
			call:   func(ctx context.Context, c *Client) (*Result, error) { return c.VisualSearch().IndexStatus(ctx, "summer") },
			method: http.MethodGet,
			path:   "/v1/catalog/summer/visual_search_index",
		},
		{
			name:   "index delete",
			call:   func(ctx context.Context, c *Client) (*Result, error) { return c.VisualSearch().IndexDelete(ctx, "summer") },
			method: http.MethodDelete,
			path:   "/v1/catalog/summer/visual_search_index",
		},
		{
			name: "browse defaults",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().Browse(ctx, "summer", "p1", "img1", nil)
			},
			method: http.MethodGet,
			path:   "/v1/catalog/summer/visual_browse/p1/img1",
			query: map[string]string{
				"max_number_of_results": "12",
				"per_category_index":    "false",
				"use_cache":             "true",
				"unique_products":       "false",
				"sort_option":           "visual_similarity",
			},
		},
		{
			name: "browse categories and apparel sort",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				opts := DefaultBrowseOptions()
				opts.Categories = []string{"tops", "blouses"}
				opts.SortOption = SortApparelSimilarity
				opts.UseCache = false
				opts.UniqueProducts = true
				opts.MaxResults = 4
				return c.VisualSearch().Browse(ctx, "summer", "p1", "img1", &opts)
			},
			method: http.MethodGet,
			path:   "/v1/catalog/summer/visual_browse/p1/img1",
			query: map[string]string{
				"max_number_of_results": "4",
				"per_category_index":    "false",
				"use_cache":             "false",
				"unique_products":       "true",
				"sort_option":           "apparel_similarity",
				"category":              "tops,blouses",
			},
		},
		{
			name:   "search categories",
			call:   func(ctx context.Context, c *Client) (*Result, error) { return c.VisualSearch().Categories(ctx, "summer") },
			method: http.MethodGet,
			path:   "/v1/catalog/summer/visual_search_categories",
		},
		{
			name: "browse categories",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().BrowseCategories(ctx, "summer")
			},
			method: http.MethodGet,
			path:   "/v1/catalog/summer/visual_browse_categories",
		},
		{
			name: "categories predict defaults",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().CategoriesPredict(ctx, "summer", nil)
			},
			method: http.MethodPost,
			path:   "/v1/catalog/summer/predict/visual_search_categories",
			query: map[string]string{
				"ignore_non_primary_images":          "false",
				"clear_cache":                        "false",
				"visual_search_categories_threshold": "0",
			},
		},
		{
			name: "categories predict threshold",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().CategoriesPredict(ctx, "summer", &CategoriesPredictOptions{
					ClearCache: true, IgnoreNonPrimaryImages: true, CategoriesThreshold: 0.25,
				})
			},
			method: http.MethodPost,
			path:   "/v1/catalog/summer/predict/visual_search_categories",
			query: map[string]string{
				"ignore_non_primary_images":          "true",
				"clear_cache":                        "true",
				"visual_search_categories_threshold": "0.25",
			},
		},
		{
			name: "categories status",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().CategoriesStatus(ctx, "summer")
			},
			method: http.MethodGet,
			path:   "/v1/catalog/summer/predict/visual_search_categories",
		},
		{
			name: "categories delete",
			call: func(ctx context.Context, c *Client) (*Result, error) {
				return c.VisualSearch().CategoriesDelete(ctx, "summer")
			},
			method: http.MethodDelete,
			path:   "/v1/catalog/summer/predict/visual_search_categories",
		},
	})
}

func TestVisualSearch_UploadsImage(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'e', 'g'}

	tests := []struct {
		name  string
		opts  *SearchOptions
		query map[string]string
	}{
		{
			name: "defaults",
			query: map[string]string{
				"max_number_of_results":              "12",
				"per_category_index":                 "false",
				"sort_option":                        "visual_similarity",
				"visual_search_categories_threshold": "0",
				"reweight_similarity_scores":         "true",
				"unique_products":                    "false",
				"return_original_predictions":        "false",
			},
		},
		{
			name: "grouped and filtered",
			opts: &SearchOptions{
				MaxResults:                6,
				PerCategoryIndex:          true,
				Categories:                []string{"dresses"},
				CategoriesThreshold:       0.5,
				SortOption:                SortApparelSimilarity,
				GroupBy:                   []string{"visual", "color"},
				UniqueProducts:            true,
				ReturnOriginalPredictions: true,
			},
			query: map[string]string{
				"max_number_of_results":              "6",
				"per_category_index":                 "true",
				"sort_option":                        "apparel_similarity",
				"visual_search_categories_threshold": "0.5",
				"reweight_similarity_scores":         "false",
				"unique_products":                    "true",
				"return_original_predictions":        "true",
				"category":                           "dresses",
				"group_by":                           "visual,color",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, rec := newRecordingServer(t, http.StatusOK, `{"results":[]}`)
			client := newTestClient(server.URL)

			res, err := client.VisualSearch().Search(context.Background(), "summer", bytes.NewReader(image), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.StatusCode != http.StatusOK {
				t.Errorf("StatusCode = %d", res.StatusCode)
			}
			if rec.Method != http.MethodPost || rec.Path != "/v1/catalog/summer/visual_search" {
				t.Errorf("request = %s %s", rec.Method, rec.Path)
			}
			if rec.Header.Get("Content-Type") != ImageContentType {
				t.Errorf("Content-Type = %q, want %q", rec.Header.Get("Content-Type"), ImageContentType)
			}
			if rec.Header.Get(HeaderAPIKey) != testAPIKey {
				t.Error("upload must carry the API key header")
			}
			if !bytes.Equal(rec.Body, image) {
				t.Errorf("body = %v, want %v", rec.Body, image)
			}
			if len(rec.Query) != len(tt.query) {
				t.Errorf("query = %v, want %v", rec.Query, tt.query)
			}
			for key, want := range tt.query {
				if got := rec.Query.Get(key); got != want {
					t.Errorf("query %s = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestVisualSearch_SearchFile(t *testing.T) {
	server, rec := newRecordingServer(t, http.StatusOK, `{"results":[]}`)
	client := newTestClient(server.URL)

	image := bytes.Repeat([]byte{0xff, 0xd8, 'j', 'p'}, 1024)
	path := filepath.Join(t.TempDir(), "query.jpg")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	if _, err := client.VisualSearch().SearchFile(context.Background(), "summer", path, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(rec.Body, image) {
		t.Errorf("body has %d bytes, want %d", len(rec.Body), len(image))
	}
	if rec.ContentLength != int64(len(image)) {
		t.Errorf("ContentLength = %d, want %d", rec.ContentLength, len(image))
	}
	if len(rec.TransferEncoding) != 0 {
		t.Errorf("TransferEncoding = %v, want none", rec.TransferEncoding)
	}

	if _, err := client.VisualSearch().SearchFile(context.Background(), "summer", t.TempDir(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("directory: err = %v, want ErrInvalidArgument", err)
	}

	_, err := client.VisualSearch().SearchFile(context.Background(), "summer", filepath.Join(t.TempDir(), "missing.jpg"), nil)
	if err == nil || IsTransportError(err) {
		t.Errorf("missing file: err = %v, want a local error", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}

func TestVisualSearch_MissingArguments(t *testing.T) {
	server, rec := newRecordingServer(t, http.StatusOK, `{}`)
	vs := newTestClient(server.URL).VisualSearch()
	ctx := context.Background()

	calls := map[string]func() (*Result, error){
		"browse without image id": func() (*Result, error) { return vs.Browse(ctx, "summer", "p1", "", nil) },
		"search without image":    func() (*Result, error) { return vs.Search(ctx, "summer", nil, nil) },
		"search with nil file": func() (*Result, error) {
			var f *os.File
			return vs.Search(ctx, "summer", f, nil)
		},
		"search with nil bytes reader": func() (*Result, error) {
			var r *bytes.Reader
			return vs.Search(ctx, "summer", r, nil)
		},
		"search file without path": func() (*Result, error) {
			return vs.SearchFile(ctx, "summer", "", nil)
		},
		"index build without name": func() (*Result, error) { return vs.IndexBuild(ctx, "", nil) },
	}
	for name, call := range calls {
		if _, err := call(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", name, err)
		}
	}
	if hits := rec.Hits.Load(); hits != 0 {
		t.Errorf("expected no requests, got %d", hits)
	}
}
