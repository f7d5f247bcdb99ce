package index

import (
	"log/slog"
	"time"

	"homesite/internal/checksum"
	"homesite/internal/meta"
	"homesite/internal/models"
	"homesite/internal/storage"
)

// Sync walks both collection directories and brings the index up to date:
//   - new/changed files are derived and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Store, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{})
	for _, col := range models.Collections() {
		metas, err := store.ListMeta(col)
		if err != nil {
			return err
		}
		for _, m := range metas {
			disk[m.Key()] = struct{}{}

			if checksums[m.Key()] == m.Checksum {
				continue
			}
			if err := indexFile(db, store, col, m.Filename); err != nil {
				logger.Warn("sync: index failed",
					slog.String("collection", string(col)),
					slog.String("filename", m.Filename),
					slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: indexed",
					slog.String("collection", string(col)),
					slog.String("filename", m.Filename))
			}
		}
	}

	// Remove stale entries.
	for key := range checksums {
		if _, ok := disk[key]; !ok {
			col, name := splitKey(key)
			if err := db.DeleteDocument(col, name); err != nil {
				logger.Warn("sync: delete failed", slog.String("key", key), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("key", key))
			}
		}
	}

	return nil
}

// indexFile reads a stored document and upserts its derived row. A sidecar
// that fails to load degrades to an empty tag list; search stays usable even
// when the listing endpoint would refuse the file.
func indexFile(db *DB, store storage.Store, col models.Collection, filename string) error {
	data, err := store.Read(col, filename)
	if err != nil {
		return err
	}
	tags, err := store.Tags(col, filename)
	if err != nil {
		tags = []string{}
	}

	return db.UpsertDocument(DocumentRow{
		Collection: string(col),
		Filename:   filename,
		Title:      meta.Title(data, filename),
		Checksum:   checksum.Sum(data),
		Tags:       tags,
		UpdatedAt:  time.Now(),
	}, string(data))
}

// splitKey undoes FileMeta.Key.
func splitKey(key string) (collection, filename string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
