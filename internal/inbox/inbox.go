// Package inbox watches a drop directory and imports any CSV file that
// appears there through the link service. It lets the browser extension (or
// the user) hand off export files without touching the HTTP API.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/linkservice"
)

// settleDelay gives the writer time to finish the file before we read it.
// Create and Write events for the same file are debounced together.
const settleDelay = 500 * time.Millisecond

// Watch runs until ctx is cancelled, importing *.csv files dropped into dir.
// A successfully imported file is renamed to <name>.imported; a file that
// fails to parse is renamed to <name>.failed so it is not retried forever.
// Any other failure is logged and never fatal.
func Watch(ctx context.Context, svc *linkservice.Service, dir string, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("inbox: watching", slog.String("dir", dir))

	// Import anything already sitting in the directory.
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
				importFile(ctx, svc, filepath.Join(dir, e.Name()), logger)
			}
		}
	}

	pending := make(map[string]*time.Timer)
	fire := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case path := <-fire:
			delete(pending, path)
			importFile(ctx, svc, path, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".csv") {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Reset(settleDelay)
				continue
			}
			pending[path] = time.AfterFunc(settleDelay, func() {
				select {
				case fire <- path:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func importFile(ctx context.Context, svc *linkservice.Service, path string, logger *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("inbox: open failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	imported, skipped, err := svc.Import(ctx, f)
	f.Close()
	if err != nil {
		logger.Warn("inbox: import failed", slog.String("path", path), slog.String("error", err.Error()))
		_ = os.Rename(path, path+".failed")
		return
	}
	logger.Info("inbox: imported",
		slog.String("path", path),
		slog.Int("imported", imported),
		slog.Int("skipped", skipped))
	_ = os.Rename(path, path+".imported")
}
