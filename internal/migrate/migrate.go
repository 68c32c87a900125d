// Package migrate detects legacy on-disk record shapes and rewrites them
// forward to the current schema, exactly once per load, atomically.
//
// It is the sole reader of the pre-upgrade shape: no other package may
// assume a particular dictionary item layout without going through Load
// first.
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// rawItem is the union of the legacy and current dictionary item shapes.
// Pointers distinguish an absent field from a zero value, which is what the
// structural detection keys off. Version tags are deliberately not used:
// historical data predates any.
type rawItem struct {
	ID        string  `json:"id"`
	Value     *string `json:"value"`
	Code      *string `json:"code"`
	Label     string  `json:"label"`
	SortOrder int     `json:"sortOrder"`
	IsEnabled *bool   `json:"isEnabled"`
}

type rawDictionaries struct {
	Topics     []rawItem `json:"topics"`
	Priorities []rawItem `json:"priorities"`
	Statuses   []rawItem `json:"statuses"`
}

// isLegacy reports whether any item still carries the flat value shape.
// Current items never expose a raw value field, so running the detector
// against migrated data is a no-op.
func (d *rawDictionaries) isLegacy() bool {
	for _, items := range [][]rawItem{d.Topics, d.Priorities, d.Statuses} {
		for _, it := range items {
			if it.Value != nil && it.Code == nil {
				return true
			}
		}
	}
	return false
}

// Load reads both collections through the legacy detector and returns them
// in the current schema. When a legacy shape is found it rewrites
// dictionaries and links together and persists both in one transaction.
//
// On persist failure the translated in-memory data is still returned (the
// session keeps working) together with an error wrapping
// apperr.ErrMigrationFailed; the disk keeps its legacy shape for retry on
// the next load. Load must complete before any other store access.
func Load(p store.Provider, logger *slog.Logger) ([]models.Link, *models.Dictionaries, error) {
	raw, err := p.GetDictionariesRaw()
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		// First use against an unseeded provider.
		dicts := models.DefaultDictionaries()
		links, err := p.GetAllLinks()
		if err != nil {
			return nil, nil, err
		}
		return links, dicts, nil
	}

	var rd rawDictionaries
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, nil, fmt.Errorf("migrate: decode dictionaries: %w", err)
	}

	if !rd.isLegacy() {
		var dicts models.Dictionaries
		if err := json.Unmarshal(raw, &dicts); err != nil {
			return nil, nil, fmt.Errorf("migrate: decode dictionaries: %w", err)
		}
		links, err := p.GetAllLinks()
		if err != nil {
			return nil, nil, err
		}
		return links, &dicts, nil
	}

	logger.Info("migrate: legacy dictionary shape detected, rewriting")

	topics, topicMap := upgradeItems(rd.Topics)
	priorities, prioMap := upgradeItems(rd.Priorities)
	statuses, statusMap := upgradeItems(rd.Statuses)
	dicts := &models.Dictionaries{Topics: topics, Priorities: priorities, Statuses: statuses}

	links, err := p.GetAllLinks()
	if err != nil {
		return nil, nil, err
	}
	for i := range links {
		links[i].Topic = remap(topicMap, links[i].Topic, models.FallbackTopic)
		links[i].Priority = remap(prioMap, links[i].Priority, models.FallbackPriority)
		links[i].Status = remap(statusMap, links[i].Status, models.FallbackStatus)
	}

	if err := p.ReplaceAll(links, dicts); err != nil {
		logger.Error("migrate: persist failed, keeping legacy data on disk",
			slog.String("error", err.Error()))
		return links, dicts, fmt.Errorf("migrate: persist: %v: %w", err, apperr.ErrMigrationFailed)
	}

	logger.Info("migrate: completed",
		slog.Int("links", len(links)),
		slog.Int("topics", len(topics)))
	return links, dicts, nil
}

// upgradeItems walks items in stored order, converting legacy entries to the
// current shape and recording the oldValue -> newCode mapping. Items already
// in the current shape pass through unchanged, keeping their stored sort
// order. Every code also maps to itself: in a mixed-shape dictionary a link
// may already hold a current code, and an identity entry keeps the link
// rewrite from clobbering it with the fallback.
func upgradeItems(items []rawItem) ([]models.DictionaryItem, map[string]string) {
	out := make([]models.DictionaryItem, 0, len(items))
	mapping := make(map[string]string, len(items))
	for i, it := range items {
		if it.Value != nil && it.Code == nil {
			code := models.Slugify(*it.Value)
			mapping[*it.Value] = code
			mapping[code] = code
			out = append(out, models.DictionaryItem{
				ID:        it.ID,
				Code:      code,
				Label:     *it.Value,
				SortOrder: i,
				IsEnabled: true,
			})
			continue
		}
		code := ""
		if it.Code != nil {
			code = *it.Code
		}
		enabled := true
		if it.IsEnabled != nil {
			enabled = *it.IsEnabled
		}
		mapping[it.Label] = code
		if code != "" {
			mapping[code] = code
		}
		out = append(out, models.DictionaryItem{
			ID:        it.ID,
			Code:      code,
			Label:     it.Label,
			SortOrder: it.SortOrder,
			IsEnabled: enabled,
		})
	}
	return out, mapping
}

// remap translates a legacy display value to its new code. Unmapped values
// (including blanks) get the field's fallback code so no link leaves the
// migration with an unresolved legacy value.
func remap(mapping map[string]string, value, fallback string) string {
	if code, ok := mapping[value]; ok && code != "" {
		return code
	}
	return fallback
}
