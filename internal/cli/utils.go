// Package cli provides CLI output helpers for kizami.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kizami/internal/models"
	"github.com/hyperjump/kizami/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, query string, results []*models.SearchResult, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query   string                 `json:"query"`
			Total   int                    `json:"total"`
			Results []*models.SearchResult `json:"results"`
		}{Query: query, Total: len(results), Results: results})
	case OutputCompact:
		for i, r := range results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", i+1, r.Score, r.Relevance, utils.Truncate(oneLine(r.Chunk.Content), 80))
		}
		return nil
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []*models.SearchResult) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Distance: %.4f | Relevance: %s\n",
			i+1, r.Score, r.Distance, r.Relevance)
		fmt.Fprintf(w, "ID: %s | Chunk: %d | Span: [%d,%d)\n",
			r.Chunk.ID, r.Chunk.ChunkIndex, r.Chunk.StartPosition, r.Chunk.EndPosition)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Chunk.Content, 200))
		fmt.Fprintln(w)
	}
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(query string, results []*models.SearchResult) {
	_ = WriteSearchResults(os.Stdout, query, results, OutputText)
}

func oneLine(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
