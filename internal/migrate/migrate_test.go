package migrate

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// fakeProvider serves canned raw documents so tests can present arbitrary
// stored shapes, including pre-upgrade ones no typed API can produce.
type fakeProvider struct {
	dictsRaw   []byte
	links      []models.Link
	replaced   bool
	gotLinks   []models.Link
	gotDicts   *models.Dictionaries
	replaceErr error
}

var _ store.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) GetAllLinks() ([]models.Link, error) { return f.links, nil }

func (f *fakeProvider) GetAllLinksRaw() ([][]byte, error) {
	out := make([][]byte, 0, len(f.links))
	for _, l := range f.links {
		doc, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeProvider) ReplaceAllLinks(links []models.Link) error {
	f.links = links
	return nil
}

func (f *fakeProvider) GetDictionaries() (*models.Dictionaries, error) {
	if f.dictsRaw == nil {
		return nil, nil
	}
	var d models.Dictionaries
	if err := json.Unmarshal(f.dictsRaw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (f *fakeProvider) GetDictionariesRaw() ([]byte, error) { return f.dictsRaw, nil }

func (f *fakeProvider) PutDictionaries(d *models.Dictionaries) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	f.dictsRaw = doc
	return nil
}

func (f *fakeProvider) ReplaceAll(links []models.Link, d *models.Dictionaries) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = true
	f.gotLinks = links
	f.gotDicts = d
	f.links = links
	doc, err := json.Marshal(d)
	if err != nil {
		return err
	}
	f.dictsRaw = doc
	return nil
}

func (f *fakeProvider) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const legacyDoc = `{
	"topics": [
		{"id": "t1", "value": "AI/ML"},
		{"id": "t2", "value": "Web Development"},
		{"id": "t3", "value": "Other"}
	],
	"priorities": [
		{"id": "p1", "value": "High"},
		{"id": "p2", "value": "Low"}
	],
	"statuses": [
		{"id": "s1", "value": "To Read"},
		{"id": "s2", "value": "Completed"}
	]
}`

func TestLoad_LegacyShapeUpgraded(t *testing.T) {
	p := &fakeProvider{
		dictsRaw: []byte(legacyDoc),
		links: []models.Link{
			{ID: "a", URL: "https://a.test", Title: "A", Topic: "AI/ML", Priority: "High", Status: "To Read"},
			{ID: "b", URL: "https://b.test", Title: "B", Topic: "Gardening", Priority: "", Status: "Completed"},
		},
	}

	links, dicts, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}

	if !p.replaced {
		t.Fatal("legacy upgrade must persist via ReplaceAll")
	}

	ai := dicts.Topics[0]
	if ai.Code != "ai-ml" || ai.Label != "AI/ML" || !ai.IsEnabled || ai.SortOrder != 0 {
		t.Errorf("upgraded topic = %+v", ai)
	}
	if dicts.Topics[1].Code != "web-development" || dicts.Topics[1].SortOrder != 1 {
		t.Errorf("second topic = %+v", dicts.Topics[1])
	}

	if links[0].Topic != "ai-ml" || links[0].Priority != "high" || links[0].Status != "to-read" {
		t.Errorf("link a remapped to %q/%q/%q", links[0].Topic, links[0].Priority, links[0].Status)
	}
	// Values that match no dictionary entry get the field fallbacks.
	if links[1].Topic != models.FallbackTopic {
		t.Errorf("unmapped topic = %q, want %q", links[1].Topic, models.FallbackTopic)
	}
	if links[1].Priority != models.FallbackPriority {
		t.Errorf("blank priority = %q, want %q", links[1].Priority, models.FallbackPriority)
	}
	if links[1].Status != "completed" {
		t.Errorf("status = %q, want completed", links[1].Status)
	}
}

func TestLoad_Idempotent(t *testing.T) {
	p := &fakeProvider{
		dictsRaw: []byte(legacyDoc),
		links: []models.Link{
			{ID: "a", URL: "https://a.test", Title: "A", Topic: "AI/ML", Priority: "High", Status: "To Read"},
		},
	}

	if _, _, err := Load(p, discard()); err != nil {
		t.Fatal(err)
	}
	p.replaced = false

	// Second load sees migrated data and must not rewrite anything.
	links, dicts, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}
	if p.replaced {
		t.Error("second load must not persist again")
	}
	if links[0].Topic != "ai-ml" {
		t.Errorf("topic after second load = %q", links[0].Topic)
	}
	if dicts.Topics[0].Code != "ai-ml" {
		t.Errorf("dictionary after second load = %+v", dicts.Topics[0])
	}
}

func TestLoad_CurrentShapePassesThrough(t *testing.T) {
	doc, err := json.Marshal(models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakeProvider{
		dictsRaw: doc,
		links:    []models.Link{{ID: "a", URL: "https://a.test", Title: "A", Topic: "design"}},
	}

	links, dicts, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}
	if p.replaced {
		t.Error("current shape must not trigger a rewrite")
	}
	if links[0].Topic != "design" {
		t.Errorf("topic = %q, want design (untouched)", links[0].Topic)
	}
	if len(dicts.Topics) != 6 {
		t.Errorf("topics = %d, want 6", len(dicts.Topics))
	}
}

func TestLoad_MissingDictionariesUsesDefaults(t *testing.T) {
	p := &fakeProvider{}
	_, dicts, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}
	if dicts == nil || len(dicts.Topics) == 0 {
		t.Fatal("missing record should yield default dictionaries")
	}
	if p.replaced {
		t.Error("defaults are not persisted by the loader")
	}
}

func TestLoad_PersistFailureStillReturnsData(t *testing.T) {
	p := &fakeProvider{
		dictsRaw:   []byte(legacyDoc),
		links:      []models.Link{{ID: "a", URL: "https://a.test", Title: "A", Topic: "AI/ML"}},
		replaceErr: errors.New("disk full"),
	}

	links, dicts, err := Load(p, discard())
	if !errors.Is(err, apperr.ErrMigrationFailed) {
		t.Fatalf("err = %v, want ErrMigrationFailed", err)
	}
	// The session still gets translated data even though disk kept the old shape.
	if links == nil || links[0].Topic != "ai-ml" {
		t.Errorf("translated links should be returned, got %+v", links)
	}
	if dicts == nil || dicts.Topics[0].Code != "ai-ml" {
		t.Errorf("translated dictionaries should be returned, got %+v", dicts)
	}
}

func TestLoad_MixedShapeUpgradesOnlyLegacyItems(t *testing.T) {
	mixed := `{
		"topics": [
			{"id": "t1", "code": "design", "label": "Design", "sortOrder": 4, "isEnabled": false},
			{"id": "t2", "value": "Gardening"}
		],
		"priorities": [],
		"statuses": []
	}`
	p := &fakeProvider{dictsRaw: []byte(mixed)}

	_, dicts, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}
	if dicts.Topics[0].Code != "design" || dicts.Topics[0].IsEnabled {
		t.Errorf("current item must pass through unchanged: %+v", dicts.Topics[0])
	}
	if dicts.Topics[0].SortOrder != 4 {
		t.Errorf("current item sortOrder = %d, want the stored 4", dicts.Topics[0].SortOrder)
	}
	if dicts.Topics[1].Code != "gardening" || !dicts.Topics[1].IsEnabled {
		t.Errorf("legacy item not upgraded: %+v", dicts.Topics[1])
	}
}

func TestLoad_MixedShapeKeepsCurrentCodesOnLinks(t *testing.T) {
	mixed := `{
		"topics": [
			{"id": "t1", "code": "design", "label": "Design", "sortOrder": 0, "isEnabled": true},
			{"id": "t2", "value": "Gardening"}
		],
		"priorities": [],
		"statuses": []
	}`
	p := &fakeProvider{
		dictsRaw: []byte(mixed),
		links: []models.Link{
			{ID: "a", URL: "https://a.test", Title: "A", Topic: "design"},
			{ID: "b", URL: "https://b.test", Title: "B", Topic: "Gardening"},
		},
	}

	links, _, err := Load(p, discard())
	if err != nil {
		t.Fatal(err)
	}
	// A link already holding a current code must survive the rewrite.
	if links[0].Topic != "design" {
		t.Errorf("current code clobbered: topic = %q, want design", links[0].Topic)
	}
	if links[1].Topic != "gardening" {
		t.Errorf("legacy value not remapped: topic = %q, want gardening", links[1].Topic)
	}
}
