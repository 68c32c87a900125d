// Package linkservice coordinates the store, migration engine, query engine,
// and interchange codec behind one API consumed by the HTTP surface, the
// inbox watcher, and the MCP server.
package linkservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/interchange"
	"github.com/starford/raido/internal/migrate"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/query"
	"github.com/starford/raido/internal/store"
)

// EventCallback is called after each successful mutation.
// kind is one of "link.created", "link.updated", "link.deleted",
// "dictionaries.updated".
type EventCallback func(kind, id string)

// Service owns the in-memory snapshot of links and dictionaries. The durable
// store holds the only other copy; every write replaces the snapshot
// wholesale and then persists it.
//
// Writes follow the optimistic policy: memory is updated first, the persist
// runs after, and a failed persist is logged without rolling the snapshot
// back. Two rapid edits resolve by ordering (last writer wins).
//
// writeMu serializes mutations end to end, so persists reach the provider in
// the same order the snapshots were taken and last-writer-wins holds for the
// durable copy too. Reads take only mu and stay concurrent with a slow
// persist.
type Service struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	provider store.Provider
	links    []models.Link
	dicts    *models.Dictionaries
	logger   *slog.Logger
	onChange EventCallback
}

// New creates a service over the given provider. Call Load before anything
// else; it is the blocking prologue that runs the migration engine.
func New(provider store.Provider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger, dicts: models.DefaultDictionaries()}
}

// SetOnChange registers the mutation event callback. Must be called before
// the service is shared across goroutines.
func (s *Service) SetOnChange(cb EventCallback) { s.onChange = cb }

// Load reads both collections through the migration engine and installs the
// snapshot. A migration persist failure is logged and tolerated: the session
// continues on the translated in-memory data and the disk keeps its legacy
// shape for the next start.
func (s *Service) Load(_ context.Context) error {
	links, dicts, err := migrate.Load(s.provider, s.logger)
	if err != nil {
		if links == nil {
			return err
		}
		s.logger.Warn("load: continuing on in-memory data after migration failure",
			slog.String("error", err.Error()))
	}
	s.mu.Lock()
	s.links = links
	s.dicts = dicts
	s.mu.Unlock()
	return nil
}

// ListResult is one filtered, sorted, paginated view over the snapshot.
type ListResult struct {
	Links []models.Link
	Total int // size of the filtered set before pagination
	Page  int // effective page after clamping
}

// List derives a view from the current snapshot. searchQ is the raw query
// string (scoped tokens plus free text), sel the multi-select filters,
// sortMode one of query.SortDefault/SortTitle/SortPriority. size <= 0
// disables pagination.
func (s *Service) List(_ context.Context, searchQ string, sel query.Selection, sortMode string, page, size int) ListResult {
	s.mu.RLock()
	links, dicts := s.links, s.dicts
	s.mu.RUnlock()

	filtered := query.Filter(links, dicts, query.Parse(searchQ), sel)
	sorted := query.Sort(filtered, dicts, sortMode)
	items, effective := query.Page(sorted, page, size)
	return ListResult{Links: items, Total: len(sorted), Page: effective}
}

// Get returns the link with the given id.
func (s *Service) Get(_ context.Context, id string) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.links {
		if s.links[i].ID == id {
			l := s.links[i]
			return &l, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Save creates or updates a link. A link without an id gets a fresh one and
// a creation timestamp; an existing id is replaced in place. CreatedAt is
// immutable: updates keep the stored value. An update that carries no
// attachments keeps the stored ones; attachments are only ever added through
// AttachText.
func (s *Service) Save(_ context.Context, l models.Link) (*models.Link, error) {
	if l.URL == "" || l.Title == "" {
		return nil, fmt.Errorf("linkservice: url and title are required: %w", apperr.ErrConflict)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.RelatedLinkIDs == nil {
		l.RelatedLinkIDs = []string{}
	}
	if l.Attachments == nil {
		l.Attachments = []models.Attachment{}
	}
	l.NormalizeRelated()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	kind := "link.created"
	replaced := false
	for i := range s.links {
		if s.links[i].ID == l.ID {
			l.CreatedAt = s.links[i].CreatedAt
			if len(l.Attachments) == 0 {
				l.Attachments = s.links[i].Attachments
			}
			s.links[i] = l
			kind = "link.updated"
			replaced = true
			break
		}
	}
	if !replaced {
		if l.CreatedAt == "" {
			l.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		s.links = append([]models.Link{l}, s.links...)
	}
	snapshot := s.copyLinksLocked()
	s.mu.Unlock()

	s.persistLinks(snapshot)
	s.emit(kind, l.ID)
	return &l, nil
}

// Delete removes a link and scrubs its id from every other link's
// RelatedLinkIDs so no dangling reference survives.
func (s *Service) Delete(_ context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	found := false
	out := s.links[:0]
	for _, l := range s.links {
		if l.ID == id {
			found = true
			continue
		}
		l.RelatedLinkIDs = removeID(l.RelatedLinkIDs, id)
		out = append(out, l)
	}
	s.links = out
	snapshot := s.copyLinksLocked()
	s.mu.Unlock()

	if !found {
		return apperr.ErrNotFound
	}
	s.persistLinks(snapshot)
	s.emit("link.deleted", id)
	return nil
}

// BatchUpdate applies a status and/or priority change to every link in ids.
// Returns the number of links touched.
func (s *Service) BatchUpdate(_ context.Context, ids []string, status, priority string) int {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	n := 0
	for i := range s.links {
		if _, ok := want[s.links[i].ID]; !ok {
			continue
		}
		if status != "" {
			s.links[i].Status = status
		}
		if priority != "" {
			s.links[i].Priority = priority
		}
		n++
	}
	snapshot := s.copyLinksLocked()
	s.mu.Unlock()

	if n > 0 {
		s.persistLinks(snapshot)
		s.emit("link.updated", "")
	}
	return n
}

// AttachText records attachment metadata and extracted text on a link. The
// byte payload is stored elsewhere; only the text participates in search.
func (s *Service) AttachText(ctx context.Context, id string, att models.Attachment) (*models.Link, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	var updated *models.Link
	for i := range s.links {
		if s.links[i].ID == id {
			if att.ID == "" {
				att.ID = uuid.NewString()
			}
			s.links[i].Attachments = append(s.links[i].Attachments, att)
			l := s.links[i]
			updated = &l
			break
		}
	}
	snapshot := s.copyLinksLocked()
	s.mu.Unlock()

	if updated == nil {
		return nil, apperr.ErrNotFound
	}
	s.persistLinks(snapshot)
	s.emit("link.updated", id)
	return updated, nil
}

// Dictionaries returns a deep copy of the current dictionaries, so callers
// cannot reach the live snapshot through the item slices.
func (s *Service) Dictionaries(_ context.Context) *models.Dictionaries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dicts.Clone()
}

// UpdateDictionaries replaces the dictionaries record. Codes must stay
// unique within each dictionary; links referencing removed codes keep them
// as orphans by design.
func (s *Service) UpdateDictionaries(_ context.Context, d *models.Dictionaries) error {
	for _, set := range []struct {
		name  string
		items []models.DictionaryItem
	}{
		{models.DictTopics, d.Topics},
		{models.DictPriorities, d.Priorities},
		{models.DictStatuses, d.Statuses},
	} {
		seen := make(map[string]struct{}, len(set.items))
		for _, it := range set.items {
			if it.Code == "" {
				return fmt.Errorf("linkservice: %s: item %q has no code: %w", set.name, it.Label, apperr.ErrConflict)
			}
			if _, dup := seen[it.Code]; dup {
				return fmt.Errorf("linkservice: %s: duplicate code %q: %w", set.name, it.Code, apperr.ErrConflict)
			}
			seen[it.Code] = struct{}{}
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cp := d.Clone()
	s.mu.Lock()
	s.dicts = cp
	s.mu.Unlock()

	if err := s.provider.PutDictionaries(cp); err != nil {
		s.logger.Error("persist dictionaries failed; in-memory state stays authoritative",
			slog.String("error", err.Error()))
	}
	s.emit("dictionaries.updated", "")
	return nil
}

// Export writes the whole collection as CSV.
func (s *Service) Export(_ context.Context, w io.Writer) (int, error) {
	s.mu.RLock()
	links, dicts := s.copyLinksLocked(), s.dicts
	s.mu.RUnlock()
	if err := interchange.ExportCSV(w, links, dicts); err != nil {
		return 0, err
	}
	return len(links), nil
}

// Import parses CSV from r and merges the result into the collection,
// deduplicating by id (imported rows win). Returns imported and skipped
// counts; a structural parse failure aborts without touching anything.
func (s *Service) Import(_ context.Context, r io.Reader) (imported, skipped int, err error) {
	s.mu.RLock()
	dicts := s.dicts
	s.mu.RUnlock()

	res, err := interchange.ImportCSV(r, dicts)
	if err != nil {
		return 0, 0, err
	}

	incoming := make(map[string]struct{}, len(res.Links))
	for _, l := range res.Links {
		incoming[l.ID] = struct{}{}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	merged := make([]models.Link, 0, len(res.Links)+len(s.links))
	merged = append(merged, res.Links...)
	for _, l := range s.links {
		if _, dup := incoming[l.ID]; !dup {
			merged = append(merged, l)
		}
	}
	s.links = merged
	snapshot := s.copyLinksLocked()
	s.mu.Unlock()

	s.persistLinks(snapshot)
	s.emit("link.created", "")
	return len(res.Links), res.Skipped, nil
}

// Links returns a copy of the full snapshot, unordered.
func (s *Service) Links(_ context.Context) []models.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLinksLocked()
}

// copyLinksLocked returns a copy of the snapshot. Caller holds s.mu.
func (s *Service) copyLinksLocked() []models.Link {
	out := make([]models.Link, len(s.links))
	copy(out, s.links)
	return out
}

// persistLinks replaces the durable links collection. Caller holds writeMu,
// which keeps snapshots reaching the provider in mutation order. Failures
// are logged, not propagated: the in-memory snapshot stays authoritative and
// durable data keeps its previous consistent state.
func (s *Service) persistLinks(snapshot []models.Link) {
	if err := s.provider.ReplaceAllLinks(snapshot); err != nil {
		s.logger.Error("persist links failed; in-memory state stays authoritative",
			slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
