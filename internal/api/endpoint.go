package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// endpoint describes one API route: the verb and a path template relative to
// the versioned API root. Placeholders are {catalog}, {id}, {image_id} and
// {image_filename}.
type endpoint struct {
	method string
	path   string
}

type pathVars map[string]string

// expand substitutes the escaped path variables. The dot segments "." and
// ".." are rejected: they survive escaping and would be collapsed into a
// different resource when the URL is resolved.
func (e endpoint) expand(vars pathVars) (string, error) {
	path := e.path
	for name, value := range vars {
		if value == "." || value == ".." {
			return "", invalidArgument("%s %q is not a valid path segment", strings.ReplaceAll(name, "_", " "), value)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path, nil
}

var (
	epFashionQuote = endpoint{http.MethodGet, "fashion_quote"}

	epCatalogNames    = endpoint{http.MethodGet, "catalog_names"}
	epCatalogMetadata = endpoint{http.MethodPost, "catalog/{catalog}"}
	epCatalogInfo     = endpoint{http.MethodGet, "catalog/{catalog}"}
	epCatalogDelete   = endpoint{http.MethodDelete, "catalog/{catalog}"}
	epTextSearch      = endpoint{http.MethodGet, "catalog/{catalog}/text_search"}
	epProductAdd      = endpoint{http.MethodPost, "catalog/{catalog}/products/{id}"}
	epProductUpdate   = endpoint{http.MethodPut, "catalog/{catalog}/products/{id}"}
	epProductGet      = endpoint{http.MethodGet, "catalog/{catalog}/products/{id}"}
	epProductDelete   = endpoint{http.MethodDelete, "catalog/{catalog}/products/{id}"}
	epCatalogImage    = endpoint{http.MethodGet, "catalog/{catalog}/images/{image_filename}"}

	epIndexBuild        = endpoint{http.MethodPost, "catalog/{catalog}/visual_search_index"}
	epIndexStatus       = endpoint{http.MethodGet, "catalog/{catalog}/visual_search_index"}
	epIndexDelete       = endpoint{http.MethodDelete, "catalog/{catalog}/visual_search_index"}
	epVisualBrowse      = endpoint{http.MethodGet, "catalog/{catalog}/visual_browse/{id}/{image_id}"}
	epVisualSearch      = endpoint{http.MethodPost, "catalog/{catalog}/visual_search"}
	epSearchCategories  = endpoint{http.MethodGet, "catalog/{catalog}/visual_search_categories"}
	epBrowseCategories  = endpoint{http.MethodGet, "catalog/{catalog}/visual_browse_categories"}
	epCategoriesPredict = endpoint{http.MethodPost, "catalog/{catalog}/predict/visual_search_categories"}
	epCategoriesStatus  = endpoint{http.MethodGet, "catalog/{catalog}/predict/visual_search_categories"}
	epCategoriesDelete  = endpoint{http.MethodDelete, "catalog/{catalog}/predict/visual_search_categories"}

	epNaturalLanguageSearch = endpoint{http.MethodGet, "catalog/{catalog}/natural_language_search"}
	epElasticsearchQueries  = endpoint{http.MethodGet, "natural_language_search/elasticsearch_queries"}
	epParse                 = endpoint{http.MethodGet, "natural_language_search/parse"}
	epSpellCorrect          = endpoint{http.MethodGet, "natural_language_search/spell_correct"}

	epCompleteTheLookText = endpoint{http.MethodGet, "complete_the_look/text/"}
)

// query builds url.Values with the service's serialization rules: booleans
// as lowercase literals, lists comma-joined, absent values omitted.
type query url.Values

func newQuery() query {
	return query(url.Values{})
}

func (q query) boolean(key string, v bool) query {
	url.Values(q).Set(key, strconv.FormatBool(v))
	return q
}

func (q query) integer(key string, v int) query {
	url.Values(q).Set(key, strconv.Itoa(v))
	return q
}

func (q query) number(key string, v float64) query {
	url.Values(q).Set(key, strconv.FormatFloat(v, 'f', -1, 64))
	return q
}

// text sets key unless v is empty.
func (q query) text(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

// list sets key to the comma-joined values unless the list is empty.
func (q query) list(key string, v []string) query {
	if len(v) > 0 {
		url.Values(q).Set(key, strings.Join(v, ","))
	}
	return q
}

func (q query) values() url.Values {
	return url.Values(q)
}
