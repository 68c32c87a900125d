package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/linkservice"
	"github.com/starford/raido/internal/store"
)

func inboxTestEnv(t *testing.T) (string, *linkservice.Service) {
	t.Helper()
	svc := linkservice.New(store.NewMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return t.TempDir(), svc
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const dropCSV = "url,title,topic\nhttps://drop.test,Dropped,Design\n"

func TestWatch_ImportsDroppedFile(t *testing.T) {
	dir, svc := inboxTestEnv(t)
	before := len(svc.Links(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, discardLogger())

	time.Sleep(100 * time.Millisecond) // let the watcher attach

	path := filepath.Join(dir, "drop.csv")
	if err := os.WriteFile(path, []byte(dropCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(svc.Links(context.Background())) == before+1
	}, "dropped file was not imported")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := os.Stat(path + ".imported")
		return err == nil
	}, "imported file was not renamed")
}

func TestWatch_ImportsPreexistingFile(t *testing.T) {
	dir, svc := inboxTestEnv(t)
	before := len(svc.Links(context.Background()))

	if err := os.WriteFile(filepath.Join(dir, "old.csv"), []byte(dropCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, discardLogger())

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return len(svc.Links(context.Background())) == before+1
	}, "pre-existing file was not imported")
}

func TestWatch_BadFileMarkedFailed(t *testing.T) {
	dir, svc := inboxTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, discardLogger())

	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(path, []byte("url,title\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := os.Stat(path + ".failed")
		return err == nil
	}, "unparsable file was not marked failed")
}

func TestWatch_IgnoresNonCSV(t *testing.T) {
	dir, svc := inboxTestEnv(t)
	before := len(svc.Links(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, discardLogger())

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(dropCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(settleDelay + 300*time.Millisecond)
	if got := len(svc.Links(context.Background())); got != before {
		t.Errorf("non-csv file changed the collection: %d -> %d", before, got)
	}
}
