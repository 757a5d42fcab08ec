package cmd

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNLSSearch(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/natural_language_search", jsonResponse(http.StatusOK, `{"results":[]}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "nls", "search", "summer", "red", "floral", "dress", "-n", "5", "--max-backoffs", "2", "--show-queries")
	require.NoError(t, run.err, run.stderr)

	q := handler.last(http.MethodGet, "/v1/catalog/summer/natural_language_search").URL.Query()
	assert.Equal(t, "red floral dress", q.Get("query_text"))
	assert.Equal(t, "5", q.Get("max_number_of_results"))
	assert.Equal(t, "2", q.Get("max_number_of_backoffs"))
	assert.Equal(t, "true", q.Get("return_elasticsearch_queries"))
}

func TestNLSSearch_Defaults(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/catalog/summer/natural_language_search", jsonResponse(http.StatusOK, `{"results":[]}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "nls", "search", "summer", "shirt")
	require.NoError(t, run.err, run.stderr)

	q := handler.last(http.MethodGet, "/v1/catalog/summer/natural_language_search").URL.Query()
	assert.Equal(t, "12", q.Get("max_number_of_results"))
	assert.Equal(t, "5", q.Get("max_number_of_backoffs"))
	assert.Equal(t, "false", q.Get("return_elasticsearch_queries"))
}

func TestNLSQueryTools(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/natural_language_search/elasticsearch_queries", jsonResponse(http.StatusOK, `{"queries":[]}`)).
		On(http.MethodGet, "/v1/natural_language_search/parse", jsonResponse(http.StatusOK, `{"entities":[]}`)).
		On(http.MethodGet, "/v1/natural_language_search/spell_correct", jsonResponse(http.StatusOK, `{"corrected":"blue jeans"}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "nls", "queries", "blue", "jeans", "--max-backoffs", "0")
	require.NoError(t, run.err, run.stderr)
	q := handler.last(http.MethodGet, "/v1/natural_language_search/elasticsearch_queries").URL.Query()
	assert.Equal(t, "blue jeans", q.Get("query_text"))
	assert.Equal(t, "0", q.Get("max_number_of_backoffs"))

	run = runCLI(t, "", "nls", "parse", "blue jeans", "--hyponyms", "--search-terms")
	require.NoError(t, run.err, run.stderr)
	q = handler.last(http.MethodGet, "/v1/natural_language_search/parse").URL.Query()
	assert.Equal(t, "true", q.Get("include_apparel_hyponyms"))
	assert.Equal(t, "false", q.Get("include_apparel_hypernyms"))
	assert.Equal(t, "true", q.Get("return_search_terms"))

	run = runCLI(t, "", "nls", "spell", "bleu", "jeens", "-q", ".corrected")
	require.NoError(t, run.err, run.stderr)
	assert.Contains(t, run.stdout, `"blue jeans"`)
	assert.Equal(t, "bleu jeens", handler.last(http.MethodGet, "/v1/natural_language_search/spell_correct").URL.Query().Get("query_text"))
}

func TestNLS_InvalidLimits(t *testing.T) {
	run := runCLI(t, "", "nls", "search", "summer", "shirt", "--max-backoffs", "-1")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "--max-backoffs must be >= 0")
	assert.Equal(t, exitUsage, ExitCode(run.err))
}

func TestLook(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/complete_the_look/text/", jsonResponse(http.StatusOK, `{"recommendations":[]}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "look", "white", "linen", "shirt", "--gender", "female")
	require.NoError(t, run.err, run.stderr)

	q := handler.last(http.MethodGet, "/v1/complete_the_look/text/").URL.Query()
	assert.Equal(t, "white linen shirt", q.Get("query_text"))
	assert.Equal(t, "female", q.Get("gender"))

	run = runCLI(t, "", "ctl", "black", "boots")
	require.NoError(t, run.err, run.stderr)
	q = handler.last(http.MethodGet, "/v1/complete_the_look/text/").URL.Query()
	assert.False(t, q.Has("gender"))
}

func TestLook_ServerError(t *testing.T) {
	handler := newRouteHandler().
		On(http.MethodGet, "/v1/complete_the_look/text/", jsonResponse(http.StatusInternalServerError, `{"error":"model offline"}`))
	setupTestServer(t, handler)

	run := runCLI(t, "", "look", "jacket")
	require.Error(t, run.err)
	assert.Contains(t, run.stderr, "model offline")
	assert.Equal(t, exitServer, ExitCode(run.err))
}
