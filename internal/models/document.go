// Package models defines the domain types for the site content store.
package models

import (
	"fmt"
	"time"
)

// Collection is one of the two content categories, each backed by its own
// storage directory and listing endpoint.
type Collection string

const (
	CollectionBlog Collection = "blog"
	CollectionNote Collection = "note"
)

// Collections lists every known collection.
func Collections() []Collection {
	return []Collection{CollectionBlog, CollectionNote}
}

// ParseCollection validates a collection name.
func ParseCollection(s string) (Collection, error) {
	switch Collection(s) {
	case CollectionBlog, CollectionNote:
		return Collection(s), nil
	}
	return "", fmt.Errorf("unknown collection: %q", s)
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return c == CollectionBlog || c == CollectionNote
}

// Document is a single Markdown-authored item with derived display metadata
// and an explicit tag list. ReadTime is populated for the blog collection only.
type Document struct {
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	ReadTime string   `json:"readTime,omitempty"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
}

// StoredFile is the record returned after a document has been persisted.
type StoredFile struct {
	Filename string   `json:"filename"`
	Path     string   `json:"path"`
	Tags     []string `json:"tags"`
	Checksum string   `json:"checksum"`
}

// FileMeta is a lightweight per-file record used by the index to detect
// changes without re-deriving full documents.
type FileMeta struct {
	Collection Collection
	Filename   string
	Checksum   string
	UpdatedAt  time.Time
}

// Key returns the index key for a file, "collection/filename".
func (m FileMeta) Key() string {
	return string(m.Collection) + "/" + m.Filename
}
