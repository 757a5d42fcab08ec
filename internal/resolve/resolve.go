// Package resolve matches user input against known names: catalogs,
// profiles, sort options and output modes.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a fuzzy match result with score.
type Match struct {
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// NoMatchError means nothing resembled the query.
type NoMatchError struct {
	Query string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no match found for %q", e.Query)
}

// AmbiguousError indicates multiple candidates matched equally well.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s", m.Name)
		}
	}
	return b.String()
}

type lowerSource []string

func (s lowerSource) String(i int) string { return strings.ToLower(s[i]) }
func (s lowerSource) Len() int            { return len(s) }

// Best returns the name that query refers to.
//
// An exact case-insensitive match wins. Otherwise the best fuzzy match is
// returned, unless the top two tie, which is an *AmbiguousError.
func Best(query string, names []string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(names) == 0 {
		return "", ErrEmptyItems
	}

	for _, name := range names {
		if strings.EqualFold(name, query) {
			return name, nil
		}
	}

	results := fuzzy.FindFrom(strings.ToLower(query), lowerSource(names))
	if len(results) == 0 {
		return "", &NoMatchError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return "", &AmbiguousError{Query: query, Matches: buildMatches(names, results, 5)}
	}
	return names[results[0].Index], nil
}

// Suggest returns up to limit names for a "did you mean" hint: fuzzy
// matches ranked best first, falling back to the closest name by edit
// distance when the query is a typo rather than an abbreviation.
func Suggest(query string, names []string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || len(names) == 0 || limit <= 0 {
		return nil
	}

	var out []string
	for _, m := range buildMatches(names, fuzzy.FindFrom(strings.ToLower(query), lowerSource(names)), limit) {
		if !strings.EqualFold(m.Name, query) {
			out = append(out, m.Name)
		}
	}
	if len(out) == 0 {
		if closest := Closest(query, names); closest != "" && !strings.EqualFold(closest, query) {
			out = append(out, closest)
		}
	}
	return out
}

// Closest returns the name nearest to query by edit distance, or "" when
// every name is more than three edits away.
func Closest(query string, names []string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	bestDist := 4
	bestMatch := ""
	for _, name := range names {
		if d := levenshtein(query, strings.ToLower(name)); d < bestDist {
			bestDist = d
			bestMatch = name
		}
	}
	return bestMatch
}

func buildMatches(names []string, results fuzzy.Matches, limit int) []Match {
	if len(results) == 0 || limit <= 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Name: names[r.Index], Score: r.Score}
	}
	return matches
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[len(b)]
}
