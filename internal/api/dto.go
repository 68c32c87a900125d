package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/raido/internal/models"
)

// SaveLinkRequest is the request body for creating or updating a link.
// The browser extension posts the same shape with only url/title/topic set.
type SaveLinkRequest struct {
	ID             string   `json:"id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Topic          string   `json:"topic"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	Notes          string   `json:"notes"`
	RelatedLinkIDs []string `json:"relatedLinkIds"`
}

// Validate validates the save request.
func (r SaveLinkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL),
		validation.Field(&r.Title, validation.Required),
	)
}

// link builds the domain object. Unset taxonomy fields get the defaults the
// extension relies on.
func (r SaveLinkRequest) link() models.Link {
	l := models.Link{
		ID:             r.ID,
		URL:            r.URL,
		Title:          r.Title,
		Description:    r.Description,
		Topic:          r.Topic,
		Priority:       r.Priority,
		Status:         r.Status,
		Notes:          r.Notes,
		RelatedLinkIDs: r.RelatedLinkIDs,
	}
	if l.Topic == "" {
		l.Topic = models.FallbackTopic
	}
	if l.Priority == "" {
		l.Priority = models.FallbackPriority
	}
	if l.Status == "" {
		l.Status = models.FallbackStatus
	}
	return l
}

// BatchUpdateRequest applies a status and/or priority change to many links.
type BatchUpdateRequest struct {
	IDs      []string `json:"ids"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
}

// Validate validates the batch request.
func (r BatchUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 0)),
	)
}

// LinkListResponse wraps a filtered, sorted, paginated listing.
type LinkListResponse struct {
	Links []models.Link `json:"links"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
}

// ImportResponse reports an import in aggregate.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// SummarizeRequest asks the AI boundary to describe a URL.
type SummarizeRequest struct {
	URL string `json:"url"`
}

// Validate validates the summarize request.
func (r SummarizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL),
	)
}
