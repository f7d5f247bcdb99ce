package api

import (
	"homesite/internal/index"
	"homesite/internal/models"
)

// Document is the derived document shape in listing responses (aliased from
// the domain layer).
type Document = models.Document

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	OK       bool     `json:"ok"`
	Filename string   `json:"filename"`
	Path     string   `json:"path"`
	Tags     []string `json:"tags"`
}

// BlogListResponse wraps the blog collection listing.
type BlogListResponse struct {
	OK    bool       `json:"ok"`
	Blogs []Document `json:"blogs"`
}

// NoteListResponse wraps the note collection listing.
type NoteListResponse struct {
	OK    bool       `json:"ok"`
	Notes []Document `json:"notes"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	OK      bool                 `json:"ok"`
	Results []index.SearchResult `json:"results"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	OK bool `json:"ok"`
}
