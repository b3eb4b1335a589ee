package library

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/montage/internal/storage"
)

// Event kinds reported by Watch.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// reconcileDelay debounces the reconciliation pass that follows renames.
const reconcileDelay = 200 * time.Millisecond

// Event describes a watcher-driven catalog change. Asset is nil for
// deletions.
type Event struct {
	Kind  string
	ID    string
	Path  string
	Asset *AssetRow
}

// EventCallback is called after a watcher-driven catalog change.
type EventCallback func(Event)

// Watch starts an fsnotify watcher on the media root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful catalog mutation.
//
// New directories are added to the watch list as they appear. Sidecar
// changes re-index the media file they describe. Rename events trigger a
// debounced reconciliation pass.
func Watch(ctx context.Context, db Catalog, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	emit := func(ev Event) {
		if cb != nil {
			cb(ev)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					indexNewDir(db, store, ev.Name, logger, emit)
					continue
				}
			}

			rel, ok := relPath(root, ev.Name)
			if !ok {
				continue
			}

			if storage.IsSidecar(rel) {
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					reindexMedia(db, store, storage.MediaForSidecar(rel), logger, emit)
				}
				continue
			}
			if _, media := storage.KindOf(rel); !media {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				row, idxErr := IndexPath(db, store, rel)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				emit(Event{Kind: kind, ID: row.ID, Path: rel, Asset: row})

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteAsset(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				emit(Event{Kind: EventDeleted, ID: IDForPath(rel), Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old path only; the new one arrives as
				// a Create when it stays inside a watched directory.
				if delErr := db.DeleteAsset(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					emit(Event{Kind: EventDeleted, ID: IDForPath(rel), Path: rel})
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reindexMedia refreshes a media file after its sidecar changed. Missing
// media is ignored.
func reindexMedia(db Catalog, store storage.Provider, rel string, logger *slog.Logger, emit func(Event)) {
	row, err := IndexPath(db, store, rel)
	if err != nil {
		logger.Debug("watcher: sidecar without media", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	logger.Debug("watcher: sidecar reindexed", slog.String("path", rel))
	emit(Event{Kind: EventUpdated, ID: row.ID, Path: rel, Asset: row})
}

// reconcile removes catalog entries whose files are gone and indexes files
// the catalog has not seen.
func reconcile(db Catalog, store storage.Provider, logger *slog.Logger, emit func(Event)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	files, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteAsset(p); err == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			emit(Event{Kind: EventDeleted, ID: IDForPath(p), Path: p})
		}
	}

	for _, f := range files {
		cs, known := checksums[f.Path]
		if cs == f.Fingerprint {
			continue
		}
		row, err := indexFile(db, store, f)
		if err != nil {
			continue
		}
		kind := EventCreated
		if known {
			kind = EventUpdated
		}
		logger.Debug("reconcile: indexed", slog.String("path", f.Path))
		emit(Event{Kind: kind, ID: row.ID, Path: f.Path, Asset: row})
	}
}

// indexNewDir indexes the media files in a newly created directory.
func indexNewDir(db Catalog, store storage.Provider, dirPath string, logger *slog.Logger, emit func(Event)) {
	rel, ok := relPath(store.Root(), dirPath)
	if !ok {
		return
	}
	files, err := store.List(rel)
	if err != nil {
		logger.Warn("watcher: list new dir failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	for _, f := range files {
		row, err := indexFile(db, store, f)
		if err != nil {
			continue
		}
		logger.Debug("watcher: indexed from new dir", slog.String("path", f.Path))
		emit(Event{Kind: EventCreated, ID: row.ID, Path: f.Path, Asset: row})
	}
}

// addDirsRecursive adds root and all its visible subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
