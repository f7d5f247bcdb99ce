package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"homesite/internal/models"
	"homesite/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, col models.Collection, filename string)

// Watch starts an fsnotify watcher on both collection directories and
// processes file change events until ctx is cancelled. It calls cb (if
// non-nil) after each successful index mutation, so documents dropped into
// the content tree by hand (or synced externally) show up in search and are
// announced to connected clients.
//
// Sidecar edits reindex the owning Markdown file. Rename events trigger a
// debounced reconciliation pass that removes stale index entries whose files
// no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Store, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, col := range models.Collections() {
		if err := w.Add(store.Dir(col)); err != nil {
			return err
		}
	}

	logger.Info("watcher: started",
		slog.String("blog_dir", store.Dir(models.CollectionBlog)),
		slog.String("note_dir", store.Dir(models.CollectionNote)))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
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
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			col, ok := collectionOf(store, ev.Name)
			if !ok {
				continue
			}
			name := filepath.Base(ev.Name)

			// Sidecar changes reindex the Markdown file they belong to.
			if strings.HasSuffix(name, storage.SidecarSuffix) {
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				mdName := strings.TrimSuffix(name, storage.SidecarSuffix) + ".md"
				if err := indexFile(db, store, col, mdName); err != nil {
					logger.Debug("watcher: sidecar without document",
						slog.String("filename", name), slog.String("error", err.Error()))
					continue
				}
				if cb != nil {
					cb("updated", col, mdName)
				}
				continue
			}

			if !strings.HasSuffix(name, ".md") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := indexFile(db, store, col, name); err != nil {
					logger.Warn("watcher: index failed",
						slog.String("filename", name), slog.String("error", err.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed",
					slog.String("collection", string(col)), slog.String("filename", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, col, name)
				}

			case ev.Op&fsnotify.Remove != 0:
				if err := db.DeleteDocument(string(col), name); err != nil {
					logger.Warn("watcher: delete failed",
						slog.String("filename", name), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("watcher: deleted",
					slog.String("collection", string(col)), slog.String("filename", name))
				if cb != nil {
					cb("deleted", col, name)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create event. Delete the old entry
				// now and reconcile shortly after to catch stragglers.
				if err := db.DeleteDocument(string(col), name); err == nil {
					logger.Debug("watcher: rename old deleted", slog.String("filename", name))
					if cb != nil {
						cb("deleted", col, name)
					}
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

// reconcile compares index checksums against the store and repairs drift in
// both directions.
func reconcile(db *DB, store storage.Store, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string)
	for _, col := range models.Collections() {
		metas, err := store.ListMeta(col)
		if err != nil {
			logger.Warn("reconcile: list failed",
				slog.String("collection", string(col)), slog.String("error", err.Error()))
			return
		}
		for _, m := range metas {
			disk[m.Key()] = m.Checksum
		}
	}

	for key := range checksums {
		if _, ok := disk[key]; !ok {
			col, name := splitKey(key)
			if err := db.DeleteDocument(col, name); err == nil {
				logger.Debug("reconcile: removed stale", slog.String("key", key))
				if cb != nil {
					cb("deleted", models.Collection(col), name)
				}
			}
		}
	}

	for key, cs := range disk {
		prev, known := checksums[key]
		if known && prev == cs {
			continue
		}
		kind := "created"
		if known {
			kind = "updated"
		}
		col, name := splitKey(key)
		if err := indexFile(db, store, models.Collection(col), name); err == nil {
			logger.Debug("reconcile: indexed", slog.String("key", key), slog.String("op", kind))
			if cb != nil {
				cb(kind, models.Collection(col), name)
			}
		}
	}
}

// collectionOf maps an absolute event path to the collection that owns it.
func collectionOf(store storage.Store, path string) (models.Collection, bool) {
	dir := filepath.Dir(path)
	for _, col := range models.Collections() {
		if dir == store.Dir(col) {
			return col, true
		}
	}
	return "", false
}
