package query

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/raido/internal/models"
)

// Sort modes.
const (
	SortDefault  = "default"
	SortTitle    = "title"
	SortPriority = "priority"
)

// Sort returns a sorted copy of links. The input is never mutated.
//
//   - default: CreatedAt descending. This is the only mode that compares
//     wall-clock values; ties keep their input order (stable).
//   - title: locale-aware case-insensitive lexicographic ascending.
//   - priority: ascending by the priority dictionary's SortOrder; unknown
//     and orphaned codes sort after every resolvable code.
func Sort(links []models.Link, dicts *models.Dictionaries, mode string) []models.Link {
	out := make([]models.Link, len(links))
	copy(out, links)

	switch mode {
	case SortTitle:
		coll := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return coll.CompareString(out[i].Title, out[j].Title) < 0
		})
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return models.SortRank(dicts.Priorities, out[i].Priority) <
				models.SortRank(dicts.Priorities, out[j].Priority)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return parseCreated(out[i].CreatedAt).After(parseCreated(out[j].CreatedAt))
		})
	}
	return out
}

// parseCreated tolerates malformed timestamps by sorting them last.
func parseCreated(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Page returns the pure slice of links for a 1-based page index. Out-of-range
// indices clamp to the last valid page, or page 1 when the set is empty.
func Page(links []models.Link, page, size int) ([]models.Link, int) {
	if size <= 0 {
		return links, 1
	}
	last := (len(links) + size - 1) / size
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	if page > last {
		page = last
	}
	start := (page - 1) * size
	if start >= len(links) {
		return []models.Link{}, page
	}
	end := start + size
	if end > len(links) {
		end = len(links)
	}
	return links[start:end], page
}
