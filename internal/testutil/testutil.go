// Package testutil provides shared test helpers for setting up stores and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/store"
)

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService creates a loaded link service backed by an in-memory store.
func TestService(t *testing.T) *linkservice.Service {
	t.Helper()
	svc := linkservice.New(store.NewMemory(), Logger())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return svc
}
