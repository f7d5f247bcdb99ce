// Package docservice coordinates storage, index, and event fan-out for
// document operations.
package docservice

import (
	"context"
	"log/slog"
	"time"

	"homesite/internal/checksum"
	"homesite/internal/index"
	"homesite/internal/meta"
	"homesite/internal/models"
	"homesite/internal/sse"
	"homesite/internal/storage"
)

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Store
	db     *index.DB
	broker *sse.Broker
	logger *slog.Logger
}

// NewService creates a new document service. broker may be nil when no SSE
// fan-out is wanted.
func NewService(store storage.Store, db *index.DB, broker *sse.Broker, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, broker: broker, logger: logger}
}

// Upload sanitizes and stores an uploaded document with its tag sidecar, then
// updates the search index and announces the change. Storage is authoritative:
// an index failure is logged but does not fail the upload.
func (s *Service) Upload(_ context.Context, col models.Collection, filename string, content []byte, tags []string) (models.StoredFile, error) {
	kind := "created"
	if prev, err := s.db.GetChecksum(string(col), storage.SanitizeFilename(filename)); err == nil && prev != "" {
		kind = "updated"
	}

	stored, err := s.store.Save(col, filename, content, tags)
	if err != nil {
		return models.StoredFile{}, err
	}

	if err := s.indexStored(col, stored, content); err != nil {
		s.logger.Warn("upload: index update failed",
			slog.String("collection", string(col)),
			slog.String("filename", stored.Filename),
			slog.String("error", err.Error()))
	} else if s.broker != nil {
		s.broker.PublishDocumentEvent(kind, string(col), stored.Filename)
	}

	return stored, nil
}

// List returns the derived documents of a collection, newest first.
func (s *Service) List(_ context.Context, col models.Collection) ([]models.Document, error) {
	return s.store.List(col)
}

// Read returns the raw Markdown content of a stored document.
func (s *Service) Read(_ context.Context, col models.Collection, filename string) ([]byte, error) {
	return s.store.Read(col, filename)
}

// Get reads a document and returns its derived representation.
func (s *Service) Get(ctx context.Context, col models.Collection, filename string) (models.Document, error) {
	data, err := s.Read(ctx, col, filename)
	if err != nil {
		return models.Document{}, err
	}
	tags, err := s.store.Tags(col, filename)
	if err != nil {
		return models.Document{}, err
	}

	date := meta.FormatDate(time.Now())
	if metas, err := s.store.ListMeta(col); err == nil {
		for _, m := range metas {
			if m.Filename == filename {
				date = meta.FormatDate(m.UpdatedAt)
			}
		}
	}

	doc := models.Document{
		Title:   meta.Title(data, filename),
		Date:    date,
		Excerpt: meta.Excerpt(string(data)),
		Content: string(data),
		Tags:    tags,
	}
	if col == models.CollectionBlog {
		doc.ReadTime = meta.ReadTime(data)
	}
	return doc, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query, collection string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, collection, limit)
}

func (s *Service) indexStored(col models.Collection, stored models.StoredFile, content []byte) error {
	return s.db.UpsertDocument(index.DocumentRow{
		Collection: string(col),
		Filename:   stored.Filename,
		Title:      meta.Title(content, stored.Filename),
		Checksum:   checksum.Sum(content),
		Tags:       stored.Tags,
		UpdatedAt:  time.Now(),
	}, string(content))
}
