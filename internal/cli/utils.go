// Package cli provides output formatting for the vibesearch CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vibelabs/vibesearch/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteRankedResults writes a hybrid search response to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteRankedResults(w io.Writer, response *models.HybridResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeRankedResultsText(w, response)
		return nil
	}
}

func writeRankedResultsText(w io.Writer, response *models.HybridResponse) {
	if len(response.Results) == 0 {
		if response.Message != "" {
			fmt.Fprintln(w, response.Message)
		} else {
			fmt.Fprintln(w, "No results.")
		}
		if response.SuggestedQuery != "" {
			fmt.Fprintf(w, "Did you mean: %s?\n", response.SuggestedQuery)
		}
		return
	}
	fmt.Fprintf(w, "\nFound %d results\n\n", len(response.Results))
	for i, result := range response.Results {
		writeOneResult(w, i+1, &result)
	}
}

func writeOneResult(w io.Writer, rank int, result *models.RankedResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	header := result.Name
	if result.Emoji != "" {
		header = result.Emoji + " " + header
	}
	if result.Neighborhood != "" {
		header += " (" + result.Neighborhood + ")"
	}
	fmt.Fprintf(w, "%d. %s\n", rank, header)
	if result.RerankScore != nil {
		fmt.Fprintf(w, "Score: %.4f (rerank) | Hybrid: %.4f (dense %.4f, sparse %.4f, image %.4f)\n",
			*result.RerankScore, result.HybridScore, result.DenseScore, result.SparseScore, result.ImageScore)
	} else {
		fmt.Fprintf(w, "Score: %.4f (dense %.4f, sparse %.4f, image %.4f)\n",
			result.HybridScore, result.DenseScore, result.SparseScore, result.ImageScore)
	}
	fmt.Fprintf(w, "ID: %s\n", result.PlaceID)
	if len(result.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(result.Tags, ", "))
	}
	if result.Description != "" {
		fmt.Fprintf(w, "\n%s\n", Truncate(result.Description, 200))
	}
	fmt.Fprintln(w)
}

// WriteNarrative writes an LLM narrative preceded by a separator, when present.
func WriteNarrative(w io.Writer, narrative string) {
	if narrative == "" {
		return
	}
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%s\n\n", narrative)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
