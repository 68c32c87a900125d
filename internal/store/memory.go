package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/starford/raido/internal/models"
)

// Memory implements Provider entirely in memory. It is the fallback used
// when the SQLite store cannot be opened: the session works normally but
// nothing survives a restart.
type Memory struct {
	mu    sync.RWMutex
	links []models.Link
	dicts *models.Dictionaries
}

// NewMemory creates an in-memory provider seeded with the built-in defaults.
func NewMemory() *Memory {
	return &Memory{
		links: models.SeedLinks(time.Now()),
		dicts: models.DefaultDictionaries(),
	}
}

func (m *Memory) GetAllLinks() ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Link, len(m.links))
	copy(out, m.links)
	return out, nil
}

func (m *Memory) GetAllLinksRaw() ([][]byte, error) {
	links, err := m.GetAllLinks()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(links))
	for _, l := range links {
		doc, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("store: encode link %s: %w", l.ID, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *Memory) ReplaceAllLinks(links []models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make([]models.Link, len(links))
	copy(m.links, links)
	return nil
}

func (m *Memory) GetDictionaries() (*models.Dictionaries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dicts == nil {
		return nil, nil
	}
	d := *m.dicts
	return &d, nil
}

func (m *Memory) GetDictionariesRaw() ([]byte, error) {
	d, err := m.GetDictionaries()
	if err != nil || d == nil {
		return nil, err
	}
	return json.Marshal(d)
}

func (m *Memory) PutDictionaries(d *models.Dictionaries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.dicts = &cp
	return nil
}

func (m *Memory) ReplaceAll(links []models.Link, d *models.Dictionaries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make([]models.Link, len(links))
	copy(m.links, links)
	cp := *d
	m.dicts = &cp
	return nil
}

func (m *Memory) Close() error { return nil }
