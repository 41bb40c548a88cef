// Package narrative produces a short prose summary of a result set via an LLM.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Summarizer turns the top results for a query into a short narrative.
type Summarizer interface {
	Summarize(ctx context.Context, query string, places []*models.Place) (string, error)
}

const systemPrompt = `You are a knowledgeable local guide. Given a search query and a ` +
	`list of venues with review excerpts, write a short, friendly paragraph (3-5 sentences) ` +
	`recommending the venues most relevant to the query. Mention venues by name. ` +
	`Do not invent venues or details that are not in the list.`

// buildUserPrompt renders the query and candidate venues into the prompt body.
// maxReviews caps how many review excerpts are included per venue.
func buildUserPrompt(query string, places []*models.Place, maxReviews int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nVenues:\n", query)
	for i, p := range places {
		fmt.Fprintf(&b, "%d. %s", i+1, p.Name)
		if p.Neighborhood != "" {
			fmt.Fprintf(&b, " (%s)", p.Neighborhood)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		b.WriteString("\n")
		reviews := p.Reviews
		if maxReviews > 0 && len(reviews) > maxReviews {
			reviews = reviews[:maxReviews]
		}
		for _, review := range reviews {
			fmt.Fprintf(&b, "   review: %s\n", review)
		}
	}
	return b.String()
}
