package models

import "strings"

// Dictionary names.
const (
	DictTopics     = "topics"
	DictPriorities = "priorities"
	DictStatuses   = "statuses"
)

// Fallback codes used when a value cannot be resolved against a dictionary.
const (
	FallbackTopic    = "other"
	FallbackPriority = "low"
	FallbackStatus   = "to-read"
)

// DictionaryItem is a single entry in a user-editable taxonomy.
//
// Code is the stable machine identifier referenced by links; it is a slug of
// the label at creation time and never changes afterwards, even when the
// label is edited. Disabled items remain referenceable by existing links but
// are hidden from pickers.
type DictionaryItem struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Label     string `json:"label"`
	SortOrder int    `json:"sortOrder"`
	IsEnabled bool   `json:"isEnabled"`
}

// Dictionaries holds the three named taxonomies.
type Dictionaries struct {
	Topics     []DictionaryItem `json:"topics"`
	Priorities []DictionaryItem `json:"priorities"`
	Statuses   []DictionaryItem `json:"statuses"`
}

// Clone returns a deep copy: the item slices are freshly allocated, so
// mutating the copy never touches the original.
func (d *Dictionaries) Clone() *Dictionaries {
	return &Dictionaries{
		Topics:     append([]DictionaryItem(nil), d.Topics...),
		Priorities: append([]DictionaryItem(nil), d.Priorities...),
		Statuses:   append([]DictionaryItem(nil), d.Statuses...),
	}
}

// ByName returns the dictionary with the given name, or nil.
func (d *Dictionaries) ByName(name string) []DictionaryItem {
	switch name {
	case DictTopics:
		return d.Topics
	case DictPriorities:
		return d.Priorities
	case DictStatuses:
		return d.Statuses
	}
	return nil
}

// Resolve matches value against a dictionary case-insensitively on either
// code or label and returns the matching item's code. ok is false when no
// item matches.
func Resolve(items []DictionaryItem, value string) (code string, ok bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	for _, it := range items {
		if strings.ToLower(it.Code) == v || strings.ToLower(it.Label) == v {
			return it.Code, true
		}
	}
	return "", false
}

// Label returns the display label for code, falling back to the code itself
// when the code is orphaned.
func Label(items []DictionaryItem, code string) string {
	for _, it := range items {
		if it.Code == code {
			return it.Label
		}
	}
	return code
}

// SortRank returns the SortOrder of the item with the given code. Unknown
// and orphaned codes rank after every resolvable code.
func SortRank(items []DictionaryItem, code string) int {
	for _, it := range items {
		if it.Code == code {
			return it.SortOrder
		}
	}
	return int(^uint(0) >> 1)
}

// Slugify derives a dictionary code from a display label: lowercase, any run
// of non-alphanumeric characters collapses to a single hyphen, leading and
// trailing hyphens stripped.
func Slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	pendingHyphen := false
	for _, r := range strings.ToLower(label) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
