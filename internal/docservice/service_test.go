package docservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"homesite/internal/apperr"
	"homesite/internal/index"
	"homesite/internal/models"
	"homesite/internal/storage"
)

func testService(t *testing.T) *Service {
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
	return NewService(store, db, nil, logger)
}

func TestUploadStoresAndIndexes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	stored, err := svc.Upload(ctx, models.CollectionBlog, "My Post!.md", []byte("# My Post\n\nsearchable body"), []string{"go"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if stored.Filename != "My_Post_.md" {
		t.Errorf("filename = %q, want %q", stored.Filename, "My_Post_.md")
	}
	if stored.Path != "/blog/My_Post_.md" {
		t.Errorf("path = %q, want %q", stored.Path, "/blog/My_Post_.md")
	}

	results, err := svc.Search(ctx, "searchable", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Filename != "My_Post_.md" {
		t.Errorf("search results = %+v, want the uploaded document", results)
	}
}

func TestUploadRejectsOversized(t *testing.T) {
	svc := testService(t)

	big := make([]byte, storage.MaxDocumentSize+1)
	_, err := svc.Upload(context.Background(), models.CollectionNote, "big.md", big, nil)
	if !errors.Is(err, apperr.ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestListDerivesDocuments(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, models.CollectionBlog, "post.md", []byte("# Hello\n\nbody"), []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}

	docs, err := svc.List(ctx, models.CollectionBlog)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}
	doc := docs[0]
	if doc.Title != "Hello" {
		t.Errorf("title = %q, want %q", doc.Title, "Hello")
	}
	if doc.ReadTime == "" {
		t.Error("blog document missing readTime")
	}
	if len(doc.Tags) != 2 {
		t.Errorf("tags = %v, want [a b]", doc.Tags)
	}
}

func TestGetSingleDocument(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, models.CollectionNote, "n.md", []byte("# Note Title\n\ntext"), []string{"t"}); err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Get(ctx, models.CollectionNote, "n.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Title != "Note Title" {
		t.Errorf("title = %q, want %q", doc.Title, "Note Title")
	}
	if doc.ReadTime != "" {
		t.Errorf("note readTime = %q, want empty", doc.ReadTime)
	}
	if doc.Date == "" {
		t.Error("date not derived")
	}
}

func TestReadNotFound(t *testing.T) {
	svc := testService(t)
	_, err := svc.Read(context.Background(), models.CollectionBlog, "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadReplacesExisting(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, models.CollectionBlog, "same.md", []byte("first"), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Upload(ctx, models.CollectionBlog, "same.md", []byte("second version"), nil); err != nil {
		t.Fatal(err)
	}

	data, err := svc.Read(ctx, models.CollectionBlog, "same.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second version" {
		t.Errorf("content = %q, want %q", data, "second version")
	}
}
