// Package rerank adapts fused candidates for an external cross-encoder reranker.
package rerank

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Document is one candidate presented to the reranker. ID is the stable
// identity used to map scored documents back onto candidates; the formatted
// Text is presentation only and may collide between distinct candidates.
type Document struct {
	ID   string
	Text string
}

// Scored is one reranked document. Score is on the reranker's own scale and
// is not comparable to hybrid scores.
type Scored struct {
	ID    string
	Score float64
}

// Reranker scores a short candidate list against the query with full
// query+document context.
type Reranker interface {
	// Rerank returns at most topN scored documents, best first.
	Rerank(ctx context.Context, query string, docs []Document, topN int) ([]Scored, error)
}

// FormatPlace builds the presentation string handed to the reranker.
func FormatPlace(meta *models.PlaceMeta) string {
	if meta == nil {
		return ""
	}
	var b strings.Builder
	if meta.Emoji != "" {
		b.WriteString(meta.Emoji)
		b.WriteString(" ")
	}
	b.WriteString(meta.Name)
	if meta.Neighborhood != "" {
		fmt.Fprintf(&b, " (%s)", meta.Neighborhood)
	}
	if meta.Description != "" {
		b.WriteString(" — ")
		b.WriteString(meta.Description)
	}
	return b.String()
}
