package report

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

// Filter keeps the records whose key fuzzy-matches query. An empty query
// keeps everything.
func Filter(records map[string]results.Record, query string) map[string]results.Record {
	if strings.TrimSpace(query) == "" {
		return records
	}

	out := make(map[string]results.Record)
	for _, key := range Rank(records, query) {
		out[key] = records[key]
	}
	return out
}

// Rank returns the matching keys, best match first.
func Rank(records map[string]results.Record, query string) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	matches := fuzzy.Find(query, keys)
	ranked := make([]string, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, m.Str)
	}
	return ranked
}
