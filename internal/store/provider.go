// Package store provides durable, versioned storage for the links collection
// and the single dictionaries record.
package store

import "github.com/starford/raido/internal/models"

// Provider is the interface for durable link and dictionary storage.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing and the in-memory fallback.
type Provider interface {
	// GetAllLinks returns every stored link, unordered.
	GetAllLinks() ([]models.Link, error)
	// ReplaceAllLinks clears the links collection and bulk-inserts the given
	// set as a single transaction. No intermediate state is observable
	// through a concurrent re-open.
	ReplaceAllLinks(links []models.Link) error
	// GetDictionaries returns the dictionaries record, or (nil, nil) when
	// none has been stored yet.
	GetDictionaries() (*models.Dictionaries, error)
	// PutDictionaries upserts the single dictionaries record.
	PutDictionaries(d *models.Dictionaries) error
	// ReplaceAll writes the dictionaries record and the full links
	// collection in one transaction: both land or neither does. The
	// migration engine relies on this to stay atomic.
	ReplaceAll(links []models.Link, d *models.Dictionaries) error
	// GetDictionariesRaw returns the stored dictionaries document verbatim
	// so the migration engine can inspect its shape. Empty when absent.
	GetDictionariesRaw() ([]byte, error)
	// GetAllLinksRaw returns every stored link document verbatim.
	GetAllLinksRaw() ([][]byte, error)
	Close() error
}

// Verify implementations satisfy Provider at compile time.
var (
	_ Provider = (*DB)(nil)
	_ Provider = (*Memory)(nil)
)
