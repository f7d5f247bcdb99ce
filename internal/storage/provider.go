// Package storage implements the file-backed content store: one directory
// per collection holding Markdown documents and their tag sidecar files.
package storage

import "homesite/internal/models"

// Store is the interface for content-store operations.
type Store interface {
	// Save persists content and its tag list under a sanitized filename and
	// returns the stored record. Content larger than MaxDocumentSize fails
	// with apperr.ErrTooLarge.
	Save(col models.Collection, filename string, content []byte, tags []string) (models.StoredFile, error)
	// List derives a document record for every .md file in the collection
	// directory. Order is directory enumeration order; callers must not rely
	// on it.
	List(col models.Collection) ([]models.Document, error)
	// ListMeta returns filename/checksum/mtime records for every .md file,
	// without deriving display metadata.
	ListMeta(col models.Collection) ([]models.FileMeta, error)
	// Read returns the raw bytes of a stored document.
	Read(col models.Collection, filename string) ([]byte, error)
	// Tags returns the sidecar tag list for a stored document. A missing
	// sidecar is an empty list; a malformed one is an error.
	Tags(col models.Collection, filename string) ([]string, error)
	// Dir returns the absolute directory of a collection.
	Dir(col models.Collection) string
}
