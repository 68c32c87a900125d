// Package interchange serializes links to and from a human-editable CSV
// format, resolving between stable internal codes and user-facing labels.
// Attachment payloads are never carried; use the database file itself for a
// full backup.
package interchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Columns, in export order. Import tolerates any column order by reading
// positions from the header row.
var header = []string{
	"id", "url", "title", "description",
	"topic", "priority", "status",
	"createdAt", "notes", "relatedLinkIds",
}

// ExportCSV writes one header row plus one row per link. Taxonomy columns
// carry display labels; an orphaned code is written as itself since it has
// no label. RFC-4180 quoting comes from encoding/csv and is what makes the
// round trip lossless.
func ExportCSV(w io.Writer, links []models.Link, dicts *models.Dictionaries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("interchange: write header: %w", err)
	}
	for _, l := range links {
		row := []string{
			l.ID,
			l.URL,
			l.Title,
			l.Description,
			models.Label(dicts.Topics, l.Topic),
			models.Label(dicts.Priorities, l.Priority),
			models.Label(dicts.Statuses, l.Status),
			l.CreatedAt,
			l.Notes,
			strings.Join(l.RelatedLinkIDs, ";"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("interchange: write row %s: %w", l.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename returns the conventional export file name for a point in
// time, e.g. "raido-export-2026-08-30.csv".
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("raido-export-%s.csv", now.UTC().Format("2006-01-02"))
}

// Result aggregates an import: the complete parsed list plus a count of
// rows that were skipped rather than failing the batch.
type Result struct {
	Links   []models.Link
	Skipped int
}

// ImportCSV parses CSV text back into links, resolving taxonomy labels to
// codes (case-insensitive, matching either label or code). Unresolvable
// values fall back to the named defaults rather than failing the import.
// Rows missing both url and title are skipped and counted. A file without a
// header row and at least the possibility of data (fewer than two lines) is
// a hard apperr.ErrImportParse.
//
// Merging the result into the existing collection is the caller's job; the
// codec never touches the store.
func ImportCSV(r io.Reader, dicts *models.Dictionaries) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("interchange: missing header: %w", apperr.ErrImportParse)
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["url"]; !ok {
		if _, ok := cols["title"]; !ok {
			return Result{}, fmt.Errorf("interchange: header has neither url nor title: %w", apperr.ErrImportParse)
		}
	}

	var res Result
	rows := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed individual row: degrade gracefully.
			res.Skipped++
			continue
		}
		rows++

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		url, title := field("url"), field("title")
		if url == "" && title == "" {
			res.Skipped++
			continue
		}

		l := models.Link{
			ID:          field("id"),
			URL:         url,
			Title:       title,
			Description: field("description"),
			Topic:       resolveOr(dicts.Topics, field("topic"), models.FallbackTopic),
			Priority:    resolveOr(dicts.Priorities, field("priority"), models.FallbackPriority),
			Status:      resolveOr(dicts.Statuses, field("status"), models.FallbackStatus),
			CreatedAt:   validTimestamp(field("createdAt")),
			Notes:       field("notes"),
			Attachments: []models.Attachment{},
		}
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.RelatedLinkIDs = splitRelated(field("relatedLinkIds"))
		l.NormalizeRelated()

		res.Links = append(res.Links, l)
	}

	if rows == 0 && res.Skipped == 0 {
		// Header only, no data lines at all.
		return Result{}, fmt.Errorf("interchange: no data rows: %w", apperr.ErrImportParse)
	}
	return res, nil
}

func resolveOr(items []models.DictionaryItem, value, fallback string) string {
	if code, ok := models.Resolve(items, value); ok {
		return code
	}
	return fallback
}

// validTimestamp keeps a parsable ISO-8601 value and substitutes "now" for
// anything missing or unparsable.
func validTimestamp(s string) string {
	if s != "" {
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return s
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func splitRelated(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
