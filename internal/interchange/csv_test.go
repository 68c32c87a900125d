package interchange

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func TestExportCSV_LabelsAndQuoting(t *testing.T) {
	links := []models.Link{
		{
			ID: "a", URL: "https://x.test", Title: `She said "hi", twice`,
			Description: "line one\nline two",
			Topic:       "web-development", Priority: "high", Status: "to-read",
			CreatedAt:      "2024-03-01T10:00:00Z",
			RelatedLinkIDs: []string{"b", "c"},
		},
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, links, models.DefaultDictionaries()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "id,url,title,description,topic,priority,status,createdAt,notes,relatedLinkIds") {
		t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	// Taxonomy columns carry labels, not codes.
	if !strings.Contains(out, "Web Development") {
		t.Error("export should write the topic label")
	}
	if strings.Contains(out, ",web-development,") {
		t.Error("export should not write raw codes for resolvable values")
	}
	if !strings.Contains(out, `"She said ""hi"", twice"`) {
		t.Errorf("title not quoted per RFC 4180: %q", out)
	}
	if !strings.Contains(out, "b;c") {
		t.Error("related ids should be semicolon-joined")
	}
}

func TestExportCSV_OrphanedCodeWrittenAsItself(t *testing.T) {
	links := []models.Link{{
		ID: "a", URL: "https://x.test", Title: "X",
		Topic: "deleted-topic", Priority: "low", Status: "to-read",
	}}
	var buf bytes.Buffer
	if err := ExportCSV(&buf, links, models.DefaultDictionaries()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "deleted-topic") {
		t.Error("orphaned code should be exported literally")
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	if got := ExportFilename(now); got != "raido-export-2026-08-30.csv" {
		t.Errorf("filename = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := []models.Link{
		{
			ID: "a", URL: "https://x.test", Title: "Quotes \"and\" commas, everywhere",
			Description: "multi\nline", Topic: "design", Priority: "medium", Status: "completed",
			CreatedAt: "2024-03-01T10:00:00Z", Notes: "some; notes",
			RelatedLinkIDs: []string{"b"},
		},
		{
			ID: "b", URL: "https://y.test", Title: "Plain",
			Topic: "other", Priority: "low", Status: "to-read",
			CreatedAt:      "2024-03-02T10:00:00Z",
			RelatedLinkIDs: []string{},
		},
	}
	dicts := models.DefaultDictionaries()

	var buf bytes.Buffer
	if err := ExportCSV(&buf, orig, dicts); err != nil {
		t.Fatal(err)
	}
	res, err := ImportCSV(&buf, dicts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", res.Skipped)
	}
	if len(res.Links) != 2 {
		t.Fatalf("got %d links", len(res.Links))
	}
	got := res.Links[0]
	if got.ID != "a" || got.Title != orig[0].Title || got.Description != orig[0].Description {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Topic != "design" || got.Priority != "medium" || got.Status != "completed" {
		t.Errorf("codes after round trip = %q/%q/%q", got.Topic, got.Priority, got.Status)
	}
	if len(got.RelatedLinkIDs) != 1 || got.RelatedLinkIDs[0] != "b" {
		t.Errorf("related = %v", got.RelatedLinkIDs)
	}
}

func TestImportCSV_LabelResolutionAndFallbacks(t *testing.T) {
	in := "id,url,title,description,topic,priority,status,createdAt,notes,relatedLinkIds\n" +
		`,https://x.com,Title,,"Web Development",,,,,` + "\n"
	res, err := ImportCSV(strings.NewReader(in), models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Links) != 1 {
		t.Fatalf("got %d links", len(res.Links))
	}
	l := res.Links[0]
	if l.Topic != "web-development" {
		t.Errorf("topic = %q, want web-development", l.Topic)
	}
	if l.Priority != models.FallbackPriority || l.Status != models.FallbackStatus {
		t.Errorf("defaults = %q/%q", l.Priority, l.Status)
	}
	if l.ID == "" {
		t.Error("missing id should be generated")
	}
	if l.CreatedAt == "" {
		t.Error("missing createdAt should be substituted")
	}
	if _, err := time.Parse(time.RFC3339, l.CreatedAt); err != nil {
		t.Errorf("substituted createdAt not parsable: %q", l.CreatedAt)
	}
}

func TestImportCSV_UnresolvableValueGetsFallback(t *testing.T) {
	in := "url,title,topic\nhttps://x.com,X,Gardening\n"
	res, err := ImportCSV(strings.NewReader(in), models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	if res.Links[0].Topic != models.FallbackTopic {
		t.Errorf("topic = %q, want %q", res.Links[0].Topic, models.FallbackTopic)
	}
}

func TestImportCSV_SkipsRowsMissingURLAndTitle(t *testing.T) {
	in := "url,title\n,\nhttps://x.com,\n,OnlyTitle\n"
	res, err := ImportCSV(strings.NewReader(in), models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.Links) != 2 {
		t.Errorf("links = %d, want 2", len(res.Links))
	}
}

func TestImportCSV_HeaderOnlyIsParseError(t *testing.T) {
	_, err := ImportCSV(strings.NewReader("id,url,title\n"), models.DefaultDictionaries())
	if !errors.Is(err, apperr.ErrImportParse) {
		t.Errorf("err = %v, want ErrImportParse", err)
	}
}

func TestImportCSV_EmptyInputIsParseError(t *testing.T) {
	_, err := ImportCSV(strings.NewReader(""), models.DefaultDictionaries())
	if !errors.Is(err, apperr.ErrImportParse) {
		t.Errorf("err = %v, want ErrImportParse", err)
	}
}

func TestImportCSV_UselessHeaderIsParseError(t *testing.T) {
	_, err := ImportCSV(strings.NewReader("a,b,c\n1,2,3\n"), models.DefaultDictionaries())
	if !errors.Is(err, apperr.ErrImportParse) {
		t.Errorf("err = %v, want ErrImportParse", err)
	}
}

func TestImportCSV_ColumnOrderIndependent(t *testing.T) {
	in := "title,url,priority\nBackwards,https://x.com,High\n"
	res, err := ImportCSV(strings.NewReader(in), models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	l := res.Links[0]
	if l.Title != "Backwards" || l.URL != "https://x.com" || l.Priority != "high" {
		t.Errorf("parsed = %+v", l)
	}
}

func TestImportCSV_SelfReferenceStripped(t *testing.T) {
	in := "id,url,title,relatedLinkIds\na,https://x.com,X,a;b;b\n"
	res, err := ImportCSV(strings.NewReader(in), models.DefaultDictionaries())
	if err != nil {
		t.Fatal(err)
	}
	got := res.Links[0].RelatedLinkIDs
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("related = %v, want [b]", got)
	}
}
