// Package query filters, searches, and sorts link snapshots. Everything here
// is pure and reentrant: no function mutates its inputs or holds state, so
// the engine may be invoked repeatedly on different snapshots without
// coordination.
package query

import (
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
)

// Search scopes selected by the in: token.
const (
	ScopeAll   = ""
	ScopeNotes = "notes"
	ScopeFile  = "file"
)

// Query is the parsed form of a search string: scoped dictionary tokens plus
// the remaining free-text term.
type Query struct {
	Term     string
	Topics   []string // values from topic: tokens, unresolved
	Priority []string
	Status   []string
	Scope    string
}

// Selection holds the separately-tracked multi-select filters. Each set is
// OR-combined internally; an empty set means no restriction. Values are
// dictionary codes.
type Selection struct {
	Topics     []string
	Statuses   []string
	Priorities []string
}

// tokenRe matches field:value and field:"quoted value" fragments.
var tokenRe = regexp.MustCompile(`(\w+):"([^"]*)"|(\w+):(\S+)`)

// Parse extracts scoped tokens from q. Tokens with an unsupported field stay
// in the free-text term rather than being silently dropped.
func Parse(q string) Query {
	var out Query
	rest := tokenRe.ReplaceAllStringFunc(q, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		field, value := m[1], m[2]
		if field == "" {
			field, value = m[3], m[4]
		}
		switch strings.ToLower(field) {
		case "topic":
			out.Topics = append(out.Topics, value)
		case "priority":
			out.Priority = append(out.Priority, value)
		case "status":
			out.Status = append(out.Status, value)
		case "in":
			switch strings.ToLower(value) {
			case "notes", "note":
				out.Scope = ScopeNotes
			case "file", "attachment":
				out.Scope = ScopeFile
			default:
				return tok
			}
		default:
			return tok
		}
		return " "
	})
	out.Term = strings.TrimSpace(strings.Join(strings.Fields(rest), " "))
	return out
}

// Filter applies the parsed query and the multi-select filters to links.
// Scoped tokens resolve case-insensitively against code or label; a token
// with no dictionary match yields zero results (fail-closed). Conditions
// across fields are AND-combined, so token order never changes the result.
func Filter(links []models.Link, dicts *models.Dictionaries, q Query, sel Selection) []models.Link {
	topicCodes, ok := resolveAll(dicts.Topics, q.Topics)
	if !ok {
		return []models.Link{}
	}
	prioCodes, ok := resolveAll(dicts.Priorities, q.Priority)
	if !ok {
		return []models.Link{}
	}
	statusCodes, ok := resolveAll(dicts.Statuses, q.Status)
	if !ok {
		return []models.Link{}
	}

	term := strings.ToLower(q.Term)
	out := make([]models.Link, 0, len(links))
	for _, l := range links {
		if !containsAll(topicCodes, l.Topic) ||
			!containsAll(prioCodes, l.Priority) ||
			!containsAll(statusCodes, l.Status) {
			continue
		}
		if term != "" && !matchesTerm(&l, term, q.Scope) {
			continue
		}
		if !inSet(sel.Topics, l.Topic) ||
			!inSet(sel.Statuses, l.Status) ||
			!inSet(sel.Priorities, l.Priority) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// resolveAll maps token values to codes. ok is false as soon as any value
// fails to resolve.
func resolveAll(items []models.DictionaryItem, values []string) ([]string, bool) {
	if len(values) == 0 {
		return nil, true
	}
	codes := make([]string, 0, len(values))
	for _, v := range values {
		code, ok := models.Resolve(items, v)
		if !ok {
			return nil, false
		}
		codes = append(codes, code)
	}
	return codes, true
}

// containsAll reports whether code satisfies every required code. A link has
// a single value per field, so multiple requirements only pass when equal.
func containsAll(required []string, code string) bool {
	for _, r := range required {
		if r != code {
			return false
		}
	}
	return true
}

// inSet reports whether code is in the OR-set; an empty set passes everything.
func inSet(set []string, code string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == code {
			return true
		}
	}
	return false
}

// matchesTerm does a case-insensitive substring match over the fields the
// scope allows.
func matchesTerm(l *models.Link, term, scope string) bool {
	has := func(s string) bool {
		return strings.Contains(strings.ToLower(s), term)
	}
	switch scope {
	case ScopeNotes:
		return has(l.Notes)
	case ScopeFile:
		return has(l.AttachmentText())
	default:
		return has(l.Title) || has(l.Description) || has(l.URL) ||
			has(l.Notes) || has(l.AttachmentText())
	}
}
