package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"homesite/internal/apperr"
	"homesite/internal/docservice"
	"homesite/internal/index"
	"homesite/internal/models"
	"homesite/internal/storage"
)

// Multipart form overhead on top of the document size cap.
const maxUploadBytes = storage.MaxDocumentSize + (1 << 20)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

// UploadBlog handles POST /api/upload-blog (multipart/form-data).
func (h *Handler) UploadBlog(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, models.CollectionBlog)
}

// UploadNote handles POST /api/upload-note (multipart/form-data).
func (h *Handler) UploadNote(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, models.CollectionNote)
}

// upload accepts a Markdown file in the "file" field and an optional "tags"
// field holding a JSON string array. A tags field that fails to parse is
// logged and treated as empty; the file itself still lands.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, col models.Collection) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("no file uploaded"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("no file uploaded"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	tags := parseTags(r.FormValue("tags"), string(col), header.Filename)

	stored, err := h.svc.Upload(r.Context(), col, header.Filename, content, tags)
	if err != nil {
		if errors.Is(err, apperr.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
			return
		}
		slog.Error("upload failed",
			slog.String("collection", string(col)),
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		OK:       true,
		Filename: stored.Filename,
		Path:     stored.Path,
		Tags:     stored.Tags,
	})
}

// parseTags decodes the optional tags form field. Malformed input degrades to
// an empty list rather than failing the upload.
func parseTags(raw, collection, filename string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		slog.Warn("upload: malformed tags field, ignoring",
			slog.String("collection", collection),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

// ListBlogs handles GET /api/blogs.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context(), models.CollectionBlog)
	if err != nil {
		slog.Error("list blogs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BlogListResponse{OK: true, Blogs: docs})
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context(), models.CollectionNote)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{OK: true, Notes: docs})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	collection := r.URL.Query().Get("collection")
	if collection != "" {
		if _, err := models.ParseCollection(collection); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown collection"))
			return
		}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.svc.Search(r.Context(), q, collection, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{OK: true, Results: results})
}
