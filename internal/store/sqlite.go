package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// The dictionaries record lives under a fixed sentinel key.
const dictionariesKey = "main"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS links (
	id  TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dictionaries (
	key TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);
`

// DB implements Provider backed by SQLite. Each record is stored as a JSON
// document so the migration engine can inspect legacy shapes structurally.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database, applies the schema, and seeds
// both collections from built-in defaults on first-ever creation. Returns
// apperr.ErrStorageUnavailable when the engine cannot be opened; callers
// fall back to NewMemory so the application stays usable.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", apperr.ErrStorageUnavailable)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	db := &DB{conn: conn}
	if err := db.seedIfEmpty(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// seedIfEmpty writes the default dataset on first-ever creation. Seeding is
// keyed off the dictionaries record: a database that has one (even with zero
// links) is considered initialized.
func (db *DB) seedIfEmpty() error {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM dictionaries`).Scan(&n); err != nil {
		return fmt.Errorf("store: seed check: %w", err)
	}
	if n > 0 {
		return nil
	}
	return db.ReplaceAll(models.SeedLinks(time.Now()), models.DefaultDictionaries())
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetAllLinks returns every stored link, unordered.
func (db *DB) GetAllLinks() ([]models.Link, error) {
	docs, err := db.GetAllLinksRaw()
	if err != nil {
		return nil, err
	}
	out := make([]models.Link, 0, len(docs))
	for _, doc := range docs {
		var l models.Link
		if err := json.Unmarshal(doc, &l); err != nil {
			return nil, fmt.Errorf("store: decode link: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

// GetAllLinksRaw returns every stored link document verbatim.
func (db *DB) GetAllLinksRaw() ([][]byte, error) {
	rows, err := db.conn.Query(`SELECT doc FROM links`)
	if err != nil {
		return nil, fmt.Errorf("store: query links: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ReplaceAllLinks clears the links collection and bulk-inserts the given set
// in one transaction.
func (db *DB) ReplaceAllLinks(links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrWriteFailed)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := replaceLinksTx(tx, links); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit links: %v: %w", err, apperr.ErrWriteFailed)
	}
	return nil
}

// GetDictionaries returns the dictionaries record, or (nil, nil) when absent.
func (db *DB) GetDictionaries() (*models.Dictionaries, error) {
	doc, err := db.GetDictionariesRaw()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	var d models.Dictionaries
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("store: decode dictionaries: %w", err)
	}
	return &d, nil
}

// GetDictionariesRaw returns the stored dictionaries document, or nil when
// absent.
func (db *DB) GetDictionariesRaw() ([]byte, error) {
	var doc []byte
	err := db.conn.QueryRow(`SELECT doc FROM dictionaries WHERE key = ?`, dictionariesKey).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: query dictionaries: %w", err)
	}
	return doc, nil
}

// PutDictionaries upserts the single dictionaries record.
func (db *DB) PutDictionaries(d *models.Dictionaries) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("store: encode dictionaries: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO dictionaries (key, doc) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc
	`, dictionariesKey, string(doc))
	if err != nil {
		return fmt.Errorf("store: put dictionaries: %v: %w", err, apperr.ErrWriteFailed)
	}
	return nil
}

// ReplaceAll writes dictionaries and the full links collection in one
// transaction.
func (db *DB) ReplaceAll(links []models.Link, d *models.Dictionaries) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("store: encode dictionaries: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrWriteFailed)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`
		INSERT INTO dictionaries (key, doc) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc
	`, dictionariesKey, string(doc)); err != nil {
		return fmt.Errorf("store: put dictionaries: %v: %w", err, apperr.ErrWriteFailed)
	}
	if err := replaceLinksTx(tx, links); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %v: %w", err, apperr.ErrWriteFailed)
	}
	return nil
}

func replaceLinksTx(tx *sql.Tx, links []models.Link) error {
	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("store: clear links: %v: %w", err, apperr.ErrWriteFailed)
	}
	if len(links) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO links (id, doc) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare link insert: %v: %w", err, apperr.ErrWriteFailed)
	}
	defer stmt.Close()
	for _, l := range links {
		doc, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("store: encode link %s: %w", l.ID, err)
		}
		if _, err := stmt.Exec(l.ID, string(doc)); err != nil {
			return fmt.Errorf("store: insert link %s: %v: %w", l.ID, err, apperr.ErrWriteFailed)
		}
	}
	return nil
}
