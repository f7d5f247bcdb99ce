package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"homesite/internal/docservice"
	"homesite/internal/index"
	"homesite/internal/storage"
)

func newTestRouter(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()

	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.CreateTemp("", "homesite-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := docservice.NewService(store, db, nil, logger)
	return NewRouter(svc, authEnabled, token, nil)
}

// multipartUpload builds a multipart body with a "file" part and an optional
// "tags" field.
func multipartUpload(t *testing.T, filename, content, tags string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if tags != "" {
		if err := mw.WriteField("tags", tags); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, r http.Handler, path, filename, content, tags string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartUpload(t, filename, content, tags)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, false, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK {
		t.Error("health ok = false")
	}
}

func TestUploadBlogAndList(t *testing.T) {
	r := newTestRouter(t, false, "")

	w := doUpload(t, r, "/upload-blog", "My Post!.md", "# My Post\n\nSome body text here.", `["go","web"]`)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}

	var up UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if !up.OK {
		t.Error("upload ok = false")
	}
	if up.Filename != "My_Post_.md" {
		t.Errorf("filename = %q, want %q", up.Filename, "My_Post_.md")
	}
	if up.Path != "/blog/My_Post_.md" {
		t.Errorf("path = %q, want %q", up.Path, "/blog/My_Post_.md")
	}
	if len(up.Tags) != 2 || up.Tags[0] != "go" || up.Tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", up.Tags)
	}

	// The listing derives title, excerpt, readTime, and date.
	req := httptest.NewRequest(http.MethodGet, "/blogs", nil)
	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d", lw.Code)
	}

	var list BlogListResponse
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Blogs) != 1 {
		t.Fatalf("blogs = %d, want 1", len(list.Blogs))
	}
	doc := list.Blogs[0]
	if doc.Title != "My Post" {
		t.Errorf("title = %q, want %q", doc.Title, "My Post")
	}
	if !strings.HasSuffix(doc.ReadTime, "min read") {
		t.Errorf("readTime = %q, want a min read value", doc.ReadTime)
	}
	if len(doc.Date) != 10 || doc.Date[4] != '-' || doc.Date[7] != '-' {
		t.Errorf("date = %q, want YYYY-MM-DD", doc.Date)
	}
	if !strings.HasSuffix(doc.Excerpt, "...") {
		t.Errorf("excerpt = %q, want trailing ellipsis", doc.Excerpt)
	}
}

func TestUploadNoteHasNoReadTime(t *testing.T) {
	r := newTestRouter(t, false, "")

	if w := doUpload(t, r, "/upload-note", "note.md", "# A Note\n\ntext", ""); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var list NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(list.Notes))
	}
	if list.Notes[0].ReadTime != "" {
		t.Errorf("note readTime = %q, want empty", list.Notes[0].ReadTime)
	}
	if strings.Contains(w.Body.String(), "readTime") {
		t.Error("note payload should omit readTime entirely")
	}
}

func TestUploadMissingFile(t *testing.T) {
	r := newTestRouter(t, false, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("tags", `["x"]`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-blog", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no file uploaded") {
		t.Errorf("body = %s, want no file uploaded error", w.Body.String())
	}
}

func TestUploadMalformedTagsIgnored(t *testing.T) {
	r := newTestRouter(t, false, "")

	w := doUpload(t, r, "/upload-note", "n.md", "content", `{not json]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var up UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if len(up.Tags) != 0 {
		t.Errorf("tags = %v, want empty", up.Tags)
	}
	if up.Tags == nil {
		t.Error("tags should encode as [], not null")
	}
}

func TestUploadTooLarge(t *testing.T) {
	r := newTestRouter(t, false, "")

	big := strings.Repeat("a", storage.MaxDocumentSize+1)
	w := doUpload(t, r, "/upload-blog", "big.md", big, "")
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	r := newTestRouter(t, false, "")
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchRejectsUnknownCollection(t *testing.T) {
	r := newTestRouter(t, false, "")
	req := httptest.NewRequest(http.MethodGet, "/search?q=x&collection=wiki", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchFindsUploadedDocument(t *testing.T) {
	r := newTestRouter(t, false, "")

	if w := doUpload(t, r, "/upload-blog", "findme.md", "# Find Me\n\nxylophone content", ""); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/search?q=xylophone", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Filename != "findme.md" {
		t.Errorf("results = %+v, want one hit for findme.md", resp.Results)
	}
}

func TestAuthProtectsUploads(t *testing.T) {
	r := newTestRouter(t, true, "secret")

	// Upload without a token is rejected.
	w := doUpload(t, r, "/upload-blog", "a.md", "content", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	// With the token it passes.
	body, ct := multipartUpload(t, "a.md", "content", "")
	req := httptest.NewRequest(http.MethodPost, "/upload-blog", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", w.Code)
	}

	// Read surface stays public.
	req = httptest.NewRequest(http.MethodGet, "/blogs", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("list status = %d, want 200 without auth", w.Code)
	}
}

func TestListFailsOnMalformedSidecar(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.CreateTemp("", "homesite-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := docservice.NewService(store, db, nil, logger)
	r := NewRouter(svc, false, "", nil)

	if w := doUpload(t, r, "/upload-blog", "ok.md", "fine", ""); w.Code != http.StatusOK {
		t.Fatalf("upload status = %d", w.Code)
	}
	// Corrupt the sidecar behind the store's back.
	sidecar := store.Dir("blog") + "/ok.tags.json"
	if err := os.WriteFile(sidecar, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/blogs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when a sidecar is malformed", w.Code)
	}
}
