package api

import "context"

// Recommendation suggests items that complete an outfit described in text.
// An empty gender leaves the choice to the service.
func (s CompleteTheLookService) Recommendation(ctx context.Context, queryText, gender string) (*Result, error) {
	if err := requireArg("query text", queryText); err != nil {
		return nil, err
	}
	q := newQuery().
		text("query_text", queryText).
		text("gender", gender)
	return s.call(ctx, epCompleteTheLookText, nil, q.values(), nil)
}
