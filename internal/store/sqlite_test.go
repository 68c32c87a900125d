package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/models"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestOpen_SeedsOnFirstCreation(t *testing.T) {
	db, _ := openTemp(t)

	links, err := db.GetAllLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(links) == 0 {
		t.Error("fresh database should be seeded with starter links")
	}

	dicts, err := db.GetDictionaries()
	if err != nil {
		t.Fatal(err)
	}
	if dicts == nil {
		t.Fatal("fresh database should have dictionaries")
	}
	if len(dicts.Topics) != 6 || len(dicts.Priorities) != 3 || len(dicts.Statuses) != 3 {
		t.Errorf("seed dictionaries = %d/%d/%d topics/priorities/statuses",
			len(dicts.Topics), len(dicts.Priorities), len(dicts.Statuses))
	}
}

func TestOpen_DoesNotReseedExisting(t *testing.T) {
	db, path := openTemp(t)

	// Empty links but keep dictionaries; a reopen must not reintroduce seeds.
	if err := db.ReplaceAllLinks(nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()

	links, err := db2.GetAllLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("reopen reseeded: got %d links, want 0", len(links))
	}
}

func TestReplaceAllLinks_SurvivesReopen(t *testing.T) {
	db, path := openTemp(t)

	want := []models.Link{
		{ID: "a", URL: "https://a.test", Title: "A", Topic: "other", Priority: "low", Status: "to-read"},
		{ID: "b", URL: "https://b.test", Title: "B", Topic: "design", Priority: "high", Status: "completed"},
	}
	if err := db.ReplaceAllLinks(want); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()

	got, err := db2.GetAllLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d links, want 2", len(got))
	}
	byID := map[string]models.Link{got[0].ID: got[0], got[1].ID: got[1]}
	if byID["b"].Title != "B" || byID["b"].Priority != "high" {
		t.Errorf("link b round-trip mismatch: %+v", byID["b"])
	}
}

func TestPutDictionaries_Upserts(t *testing.T) {
	db, _ := openTemp(t)

	d := models.DefaultDictionaries()
	d.Topics = append(d.Topics, models.DictionaryItem{
		ID: "topic7", Code: "gardening", Label: "Gardening", SortOrder: 6, IsEnabled: true,
	})
	if err := db.PutDictionaries(d); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetDictionaries()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Topics) != 7 {
		t.Errorf("topics = %d, want 7", len(got.Topics))
	}
	if got.Topics[6].Code != "gardening" {
		t.Errorf("new topic code = %q", got.Topics[6].Code)
	}
}

func TestOpen_UnavailablePath(t *testing.T) {
	// Point the DSN at a directory; sqlite cannot open it as a database file.
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "blocked"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(filepath.Join(dir, "blocked")); err == nil {
		t.Error("opening a directory as a database should fail")
	}
}

func TestMemory_ImplementsSameContract(t *testing.T) {
	m := NewMemory()

	dicts, err := m.GetDictionaries()
	if err != nil || dicts == nil {
		t.Fatalf("memory store should be seeded: %v", err)
	}

	links := []models.Link{{ID: "x", URL: "https://x.test", Title: "X"}}
	if err := m.ReplaceAll(links, dicts); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetAllLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Errorf("links = %+v", got)
	}

	raw, err := m.GetDictionariesRaw()
	if err != nil || len(raw) == 0 {
		t.Errorf("raw dictionaries should be non-empty: %v", err)
	}
}
