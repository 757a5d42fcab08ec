package api

import "context"

// DefaultMaxBackoffs is the default number of times the service relaxes a
// natural language query that matches nothing.
const DefaultMaxBackoffs = 5

// NLSearchOptions controls natural language search.
type NLSearchOptions struct {
	MaxResults  int
	MaxBackoffs int
	// ReturnElasticsearchQueries includes the generated backend queries.
	ReturnElasticsearchQueries bool
}

func DefaultNLSearchOptions() NLSearchOptions {
	return NLSearchOptions{MaxResults: DefaultMaxResults, MaxBackoffs: DefaultMaxBackoffs}
}

// ElasticsearchQueriesOptions controls query generation.
type ElasticsearchQueriesOptions struct {
	MaxResults  int
	MaxBackoffs int
}

func DefaultElasticsearchQueriesOptions() ElasticsearchQueriesOptions {
	return ElasticsearchQueriesOptions{MaxResults: DefaultMaxResults, MaxBackoffs: DefaultMaxBackoffs}
}

// ParseOptions controls query parsing.
type ParseOptions struct {
	IncludeApparelHyponyms  bool
	IncludeApparelHypernyms bool
	ReturnSearchTerms       bool
}

func DefaultParseOptions() ParseOptions {
	return ParseOptions{}
}

// Search runs a natural language query against a catalog.
func (s NaturalLanguageSearchService) Search(ctx context.Context, name, queryText string, opts *NLSearchOptions) (*Result, error) {
	if err := requireArg("catalog name", name); err != nil {
		return nil, err
	}
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	o := DefaultNLSearchOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		text("query_text", queryText).
		integer("max_number_of_results", o.MaxResults).
		integer("max_number_of_backoffs", o.MaxBackoffs).
		boolean("return_elasticsearch_queries", o.ReturnElasticsearchQueries)
	return s.call(ctx, epNaturalLanguageSearch, catalogVars(name), q.values(), nil)
}

// ElasticsearchQueries returns the backend queries generated for a natural
// language query, without running them.
func (s NaturalLanguageSearchService) ElasticsearchQueries(ctx context.Context, queryText string, opts *ElasticsearchQueriesOptions) (*Result, error) {
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	o := DefaultElasticsearchQueriesOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		text("query_text", queryText).
		integer("max_number_of_results", o.MaxResults).
		integer("max_number_of_backoffs", o.MaxBackoffs)
	return s.call(ctx, epElasticsearchQueries, nil, q.values(), nil)
}

// Parse extracts fashion entities from a natural language query.
func (s NaturalLanguageSearchService) Parse(ctx context.Context, queryText string, opts *ParseOptions) (*Result, error) {
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	o := DefaultParseOptions()
	if opts != nil {
		o = *opts
	}
	q := newQuery().
		text("query_text", queryText).
		boolean("include_apparel_hyponyms", o.IncludeApparelHyponyms).
		boolean("include_apparel_hypernyms", o.IncludeApparelHypernyms).
		boolean("return_search_terms", o.ReturnSearchTerms)
	return s.call(ctx, epParse, nil, q.values(), nil)
}

// SpellCorrect returns the spelling-corrected query.
func (s NaturalLanguageSearchService) SpellCorrect(ctx context.Context, queryText string) (*Result, error) {
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	q := newQuery().text("query_text", queryText)
	return s.call(ctx, epSpellCorrect, nil, q.values(), nil)
}
