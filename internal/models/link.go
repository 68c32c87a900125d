// Package models defines the domain types for Raido.
package models

import "strings"

// Attachment describes a file attached to a link. The byte payload lives on
// disk under the data directory; only the extracted text is kept here so it
// can participate in free-text search.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	TextContent string `json:"textContent,omitempty"`
}

// Link represents a saved resource.
//
// Topic, Priority and Status hold dictionary item codes, not labels. A code
// whose item has been removed from its dictionary stays on the link as-is
// (an orphaned code) and is rendered literally by consumers.
type Link struct {
	ID             string       `json:"id"`
	URL            string       `json:"url"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Topic          string       `json:"topic"`
	Priority       string       `json:"priority"`
	Status         string       `json:"status"`
	CreatedAt      string       `json:"createdAt"` // ISO-8601, set once at creation
	Notes          string       `json:"notes,omitempty"`
	RelatedLinkIDs []string     `json:"relatedLinkIds"`
	Attachments    []Attachment `json:"attachments"`
}

// AttachmentText returns the concatenated extracted text of all attachments.
func (l *Link) AttachmentText() string {
	if len(l.Attachments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l.Attachments))
	for _, a := range l.Attachments {
		if a.TextContent != "" {
			parts = append(parts, a.TextContent)
		}
	}
	return strings.Join(parts, "\n")
}

// NormalizeRelated collapses duplicate related ids and strips any
// self-reference, preserving first-seen order.
func (l *Link) NormalizeRelated() {
	if len(l.RelatedLinkIDs) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(l.RelatedLinkIDs))
	out := l.RelatedLinkIDs[:0]
	for _, id := range l.RelatedLinkIDs {
		if id == "" || id == l.ID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	l.RelatedLinkIDs = out
}
