package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productWithImages = `{"data":{"id":"p1","images":{"front":{"image_url":"https://cdn.example.com/front.jpg","image_filename":"front_p1.jpg"},"back":{"image_url":"https://cdn.example.com/back.jpg","image_filename":"back_p1.jpg"}}}}`

func TestCatalogNames_JSONPassthrough(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog_names", jsonResponse(http.StatusOK, `["summer","winter"]`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "names", "--json", "--cj")
	require.NoError(t, run.err)
	assert.JSONEq(t, `["summer","winter"]`, run.stdout)
}

func TestCatalogInfo_NotFoundSuggestsCatalog(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/sumer", jsonResponse(http.StatusNotFound, `{"error":"catalog not found"}`)).
		On(http.MethodGet, "/v1/catalog_names", jsonResponse(http.StatusOK, `["summer","winter"]`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "info", "sumer")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "API error (HTTP 404): catalog not found")
	assert.Contains(t, run.stderr, "Did you mean catalog summer?")
	assert.Equal(t, exitNotFound, ExitCode(run.err))
}

func TestCatalogInfo_NotFoundJSON(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/gone", jsonResponse(http.StatusNotFound, `{"error":"catalog not found"}`)).
		On(http.MethodGet, "/v1/catalog_names", jsonResponse(http.StatusOK, `[]`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "info", "gone", "--json")
	require.Error(t, run.err)
	assert.JSONEq(t, `{"error":"catalog not found"}`, run.stdout)

	var structured map[string]any
	require.NoError(t, json.Unmarshal([]byte(run.stderr), &structured))
	assert.Equal(t, "not_found", structured["code"])
}

func TestCatalogSearch_JoinsQueryWords(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/text_search", jsonResponse(http.StatusOK, `{"results":[]}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "search", "summer", "red", "dress", "-n", "7")
	require.NoError(t, run.err)

	req := handler.last(http.MethodGet, "/v1/catalog/summer/text_search")
	require.NotNil(t, req)
	assert.Equal(t, "red dress", req.URL.Query().Get("query_text"))
	assert.Equal(t, "7", req.URL.Query().Get("max_number_of_results"))
}

func TestCatalogSearch_RejectsNonPositiveMax(t *testing.T) {
	run := runCLI(t, "", "catalog", "search", "summer", "dress", "-n", "0")
	require.Error(t, run.err)
	assert.Equal(t, exitUsage, ExitCode(run.err))
}

func TestCatalogDelete_RequiresConfirmation(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodDelete, "/v1/catalog/summer", jsonResponse(http.StatusOK, `{"deleted":true}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "delete", "summer")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "re-run with --yes")
	assert.Zero(t, handler.count(http.MethodDelete, "/v1/catalog/summer"))

	run = runCLI(t, "", "catalog", "delete", "summer", "--yes", "--keep-images")
	require.NoError(t, run.err)
	req := handler.last(http.MethodDelete, "/v1/catalog/summer")
	require.NotNil(t, req)
	assert.Equal(t, "false", req.URL.Query().Get("delete_images"))
}

func TestCatalogMetadata_FromStdin(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	handler := newRouteHandler().
		On(http.MethodPost, "/v1/catalog/summer", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(http.StatusOK, `{"status":"ok"}`)(w, r)
		})
	setupTestServer(t, handler)

	run := runCLI(t, `{"friendly_name":"Summer 2026"}`, "catalog", "metadata", "summer", "-d", "-")
	require.NoError(t, run.err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Summer 2026", body["friendly_name"])
}

func TestCatalogMetadata_InvalidJSON(t *testing.T) {
	run := runCLI(t, "", "catalog", "metadata", "summer", "-d", "{nope")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "invalid JSON in --data")
}

func TestProductAdd_FromYAMLFile(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	handler := newRouteHandler().
		On(http.MethodPost, "/v1/catalog/summer/products/p9", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			jsonResponse(http.StatusOK, `{"status":"added"}`)(w, r)
		})
	setupTestServer(t, handler)

	path := filepath.Join(t.TempDir(), "p9.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: p9\ntitle: Linen shirt\nprice: 49.5\n"), 0o600))

	run := runCLI(t, "", "catalog", "product", "add", "summer", "--file", path, "--no-download-images")
	require.NoError(t, run.err, run.stderr)

	req := handler.last(http.MethodPost, "/v1/catalog/summer/products/p9")
	require.NotNil(t, req)
	assert.Equal(t, "false", req.URL.Query().Get("download_images"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Linen shirt", body["title"])
	assert.Equal(t, 49.5, body["price"])
}

func TestProductUpdate_IDFromData(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodPut, "/v1/catalog/summer/products/42", jsonResponse(http.StatusOK, `{"status":"updated"}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "product", "update", "summer", "-d", `{"id":42,"title":"Tee"}`)
	require.NoError(t, run.err, run.stderr)
	assert.Equal(t, 1, handler.count(http.MethodPut, "/v1/catalog/summer/products/42"))
}

func TestProductAdd_RequiresOneSource(t *testing.T) {
	run := runCLI(t, "", "catalog", "product", "add", "summer", "p1")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "exactly one of --data or --file is required")

	run = runCLI(t, "", "catalog", "product", "add", "summer", "-d", `{"title":"no id"}`)
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "product id is required")
}

func TestProductImage_FirstImage(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/products/p1", jsonResponse(http.StatusAccepted, productWithImages))
	server := setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "product", "image", "summer", "p1", "--json")
	require.NoError(t, run.err, run.stderr)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(run.stdout), &got))
	assert.Equal(t, "front", got["image_id"])
	assert.Equal(t, "front_p1.jpg", got["image_filename"])
	assert.Equal(t, server.URL+"/v1/catalog/summer/images/front_p1.jpg?api_key="+testAPIKey, got["image_url_local"])
	assert.NotContains(t, got, "product_info")
}

func TestProductImage_CropAndImageID(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/products/p1", jsonResponse(http.StatusAccepted, productWithImages))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "product", "image", "summer", "p1",
		"--image-id", "back", "--x", "10", "--y", "0", "--width", "300", "--height", "400", "-q", ".image_url_local")
	require.NoError(t, run.err, run.stderr)
	assert.Contains(t, run.stdout, "/images/back_p1.jpg?api_key=")
	assert.Contains(t, run.stdout, "&top_left_x=10&top_left_y=0&width=300&height=400")
}

func TestProductImage_PartialCropRejected(t *testing.T) {
	run := runCLI(t, "", "catalog", "product", "image", "summer", "p1", "--x", "10", "--width", "20")
	require.Error(t, run.err)
	require.ErrorIs(t, run.err, errPartialCrop)
	assert.Equal(t, exitUsage, ExitCode(run.err))
}

func TestProductImage_UnknownImage(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/products/p1", jsonResponse(http.StatusAccepted, productWithImages))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "product", "image", "summer", "p1", "--image-id", "side")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, `no image "side"`)
	assert.Equal(t, exitNotFound, ExitCode(run.err))
}

func TestProductImage_ProductMissing(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/products/p404", jsonResponse(http.StatusNotFound, `{"error":"product not found"}`)).
		On(http.MethodGet, "/v1/catalog_names", jsonResponse(http.StatusOK, `["summer"]`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "catalog", "product", "image", "summer", "p404")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "product not found")
	assert.NotContains(t, run.stderr, "Did you mean")
	assert.Equal(t, exitNotFound, ExitCode(run.err))
}

func TestCatalogNames(t *testing.T) {
	tests := []struct {
		name string
		body any
		want []string
	}{
		{"list", []any{"a", "b", 3}, []string{"a", "b"}},
		{"wrapped", map[string]any{"catalog_names": []any{"x"}}, []string{"x"}},
		{"other", "nope", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalogNames(tt.body))
		})
	}
}
