package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/itchyny/gojq"
)

type queryKey struct{}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context
func GetQuery(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// ValidateQuery reports whether expr parses as jq.
func ValidateQuery(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := gojq.Parse(NormalizeExpression(expr)); err != nil {
		return fmt.Errorf("invalid query expression: %w", err)
	}
	return nil
}

// ApplyQuery runs a jq expression over v. The value is round-tripped through
// JSON first so that typed structs are seen the way they are printed. A
// single result is returned as is; several results are returned as a slice.
func ApplyQuery(v any, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return v, nil
	}
	query, err := gojq.Parse(NormalizeExpression(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid query expression: %w", err)
	}

	data, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}

	iter := query.Run(data)
	var results []any
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := out.(error); ok {
			return nil, fmt.Errorf("query error: %w", err)
		}
		results = append(results, out)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	if results == nil {
		return []any{}, nil
	}
	return results, nil
}

// WriteJSONFiltered writes JSON with optional jq filtering.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	filtered, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, filtered, compact)
}

// toJSONValue converts v into the plain map/slice form gojq operates on.
func toJSONValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return out, nil
}
