// Package spool watches a directory for auth log files and ingests each
// one as it appears. Files should be moved into the directory atomically
// (rename) so they are complete when the create event fires.
package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/logtally/authtab/ingesters/logfile"
	"github.com/logtally/authtab/internal/health"
	"github.com/logtally/authtab/internal/metrics"
	"github.com/logtally/authtab/processors/authlog"
)

// ComponentName is the health readiness key for this ingester.
const ComponentName = "spool-watcher"

// logSuffix selects which directory entries are treated as log files.
const logSuffix = ".log"

// Callback receives each record across all ingested files.
type Callback func(authlog.Record) error

// Watcher ingests log files dropped into a spool directory. Files
// already present when Watch starts are ingested first, oldest name
// first; new files are ingested as they are created.
type Watcher struct {
	Dir     string
	Proc    *authlog.Processor
	Logger  *zap.SugaredLogger
	Health  *health.Health
	Metrics *metrics.Provider
}

// Watch runs until ctx is cancelled or a file-level failure occurs.
// Per-line parse failures inside each file are dropped silently.
func (w *Watcher) Watch(ctx context.Context, cb Callback) error {
	dir, err := filepath.Abs(w.Dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for '%s': %w", w.Dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read spool directory '%s': %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", dir, err)
	}

	if w.Health != nil {
		w.Health.OnReady(ComponentName)
	}

	for _, name := range logNamesOldestFirst(entries) {
		if err := w.ingest(ctx, filepath.Join(dir, name), cb); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-watcher.Events:
			if !open {
				return errors.New("fsnotify event channel closed")
			}

			if !event.Has(fsnotify.Create) || !strings.HasSuffix(event.Name, logSuffix) {
				continue
			}

			if err := w.ingest(ctx, event.Name, cb); err != nil {
				return err
			}
		case err, open := <-watcher.Errors:
			if !open {
				return errors.New("fsnotify error channel closed")
			}

			if w.Logger != nil {
				w.Logger.Errorw("spool watcher error", "dir", dir, "error", err)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string, cb Callback) error {
	i := &logfile.Ingester{
		FilePath: path,
		Proc:     w.Proc,
		Logger:   w.Logger,
		Metrics:  w.Metrics,
	}

	return i.Ingest(ctx, logfile.Callback(cb))
}

// logNamesOldestFirst filters directory entries for log files and
// orders them by name ascending, which for rotated logs with date or
// sequence suffixes approximates oldest first.
func logNamesOldestFirst(entries []os.DirEntry) []string {
	var names []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logSuffix) {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names
}
