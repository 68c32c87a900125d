// Package ai defines the boundary to the external generative-language
// service. It is a collaborator, never required for correctness: every call
// may fail and callers must degrade to a generic message without touching
// stored data.
package ai

import (
	"context"

	"github.com/starford/raido/internal/models"
)

// Summary is the model's description of a URL, used to pre-fill the save
// form. Topic is a display label to be resolved against the topics
// dictionary by the caller.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
}

// Summarizer describes a URL.
type Summarizer interface {
	Summarize(ctx context.Context, url string) (Summary, error)
}

// RelatedFinder picks candidate links related to a source link. The returned
// ids may be empty and are never assumed authoritative.
type RelatedFinder interface {
	FindRelated(ctx context.Context, source models.Link, candidates []models.Link) ([]string, error)
}
