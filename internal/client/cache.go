// Package client implements the offline-first content cache, merge, and
// filter logic used by the CLI client. Documents are keyed by title per
// collection and persisted locally, so the client stays usable with no
// server reachable.
package client

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// Storage keys for the two persisted collection mappings.
const (
	KeyBlog = "blogData"
	KeyNote = "noteData"
)

// Document is the client-side document shape. FullContent is a cache-only
// duplicate of Content kept for fast detail display.
type Document struct {
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	ReadTime    string   `json:"readTime,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	FullContent string   `json:"fullContent,omitempty"`
}

// LocalStore persists title-keyed document mappings as JSON files under a
// state directory, one file per storage key.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocalStore creates the state directory if needed.
func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load reads the persisted mapping for a key. A missing or unparsable file
// resets to an empty mapping; corruption is logged, never fatal.
func (s *LocalStore) Load(key string) map[string]Document {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return map[string]Document{}
	}
	var docs map[string]Document
	if err := json.Unmarshal(data, &docs); err != nil {
		s.logger.Warn("local state unreadable, starting empty",
			slog.String("key", key), slog.String("error", err.Error()))
		return map[string]Document{}
	}
	if docs == nil {
		docs = map[string]Document{}
	}
	return docs
}

// Save persists a mapping with a write-to-temp-then-rename so a crash never
// leaves a truncated state file behind.
func (s *LocalStore) Save(key string, docs map[string]Document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".homesite-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return err
	}
	success = true
	return nil
}
