package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"homesite/internal/apperr"
	"homesite/internal/checksum"
	"homesite/internal/meta"
	"homesite/internal/models"
)

// MaxDocumentSize caps uploaded Markdown content at 2 MiB.
const MaxDocumentSize = 2 << 20

// SidecarSuffix is appended to a document's filename stem to name its tag file.
const SidecarSuffix = ".tags.json"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// sidecar is the on-disk shape of a tag file.
type sidecar struct {
	Tags []string `json:"tags"`
}

// FS implements Store backed by per-collection directories under a root.
type FS struct {
	root string
}

// NewFS creates the store rooted at dir, creating the root and every
// collection directory up front. Requests never create directories.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	for _, col := range models.Collections() {
		if err := os.MkdirAll(filepath.Join(abs, string(col)), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s dir: %w", col, err)
		}
	}
	return &FS{root: abs}, nil
}

// Dir returns the absolute directory of a collection.
func (f *FS) Dir(col models.Collection) string {
	return filepath.Join(f.root, string(col))
}

// SanitizeFilename maps an upload filename to its stored form: every
// character outside [A-Za-z0-9_.-] becomes '_' and a lowercase .md suffix
// is forced, so every stored name matches the listing filter. Unusable
// names fall back to a unique upload-<id>.md.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = unsafeChars.ReplaceAllString(base, "_")
	if strings.Trim(base, "_.") == "" {
		base = "upload-" + uuid.NewString()[:8]
	}
	if strings.HasSuffix(strings.ToLower(base), ".md") {
		base = base[:len(base)-len(".md")] + ".md"
	} else {
		base += ".md"
	}
	return base
}

// safeName rejects filenames that are not a plain name inside the collection
// directory and returns the absolute path.
func (f *FS) safeName(col models.Collection, name string) (string, error) {
	if !col.Valid() {
		return "", fmt.Errorf("storage: unknown collection: %q", col)
	}
	cleaned := filepath.Clean(name)
	if cleaned == "" || cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid filename: %q", name)
	}
	return filepath.Join(f.Dir(col), cleaned), nil
}

// Save writes the Markdown file and its tag sidecar. Each write is atomic
// (tmp file, fsync, rename) but the pair is not transactional: a crash
// between the two leaves a Markdown file whose tags read back empty.
func (f *FS) Save(col models.Collection, filename string, content []byte, tags []string) (models.StoredFile, error) {
	if !col.Valid() {
		return models.StoredFile{}, fmt.Errorf("storage: unknown collection: %q", col)
	}
	if len(content) > MaxDocumentSize {
		return models.StoredFile{}, fmt.Errorf("storage: %d bytes: %w", len(content), apperr.ErrTooLarge)
	}

	name := SanitizeFilename(filename)
	abs, err := f.safeName(col, name)
	if err != nil {
		return models.StoredFile{}, err
	}

	tags = dedupe(tags)
	if err := writeAtomic(abs, content); err != nil {
		return models.StoredFile{}, err
	}

	sc, err := json.Marshal(sidecar{Tags: tags})
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("storage: encode sidecar: %w", err)
	}
	if err := writeAtomic(sidecarPath(abs), sc); err != nil {
		return models.StoredFile{}, err
	}

	return models.StoredFile{
		Filename: name,
		Path:     "/" + string(col) + "/" + name,
		Tags:     tags,
		Checksum: checksum.Sum(content),
	}, nil
}

// List enumerates the collection directory and derives a document record per
// .md file. Any read failure, including a malformed sidecar, aborts the
// whole listing.
func (f *FS) List(col models.Collection) ([]models.Document, error) {
	if !col.Valid() {
		return nil, fmt.Errorf("storage: unknown collection: %q", col)
	}
	entries, err := os.ReadDir(f.Dir(col))
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", col, err)
	}

	docs := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		abs := filepath.Join(f.Dir(col), e.Name())
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", e.Name(), err)
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		tags, err := readSidecar(sidecarPath(abs))
		if err != nil {
			return nil, err
		}

		doc := models.Document{
			Title:   meta.Title(content, e.Name()),
			Date:    meta.FormatDate(info.ModTime()),
			Excerpt: meta.Excerpt(string(content)),
			Content: string(content),
			Tags:    tags,
		}
		if col == models.CollectionBlog {
			doc.ReadTime = meta.ReadTime(content)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ListMeta returns change-detection records for every .md file.
func (f *FS) ListMeta(col models.Collection) ([]models.FileMeta, error) {
	if !col.Valid() {
		return nil, fmt.Errorf("storage: unknown collection: %q", col)
	}
	entries, err := os.ReadDir(f.Dir(col))
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", col, err)
	}

	metas := make([]models.FileMeta, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(f.Dir(col), e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", e.Name(), err)
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		metas = append(metas, models.FileMeta{
			Collection: col,
			Filename:   e.Name(),
			Checksum:   checksum.Sum(content),
			UpdatedAt:  info.ModTime(),
		})
	}
	return metas, nil
}

// Read returns the raw bytes of a stored document.
func (f *FS) Read(col models.Collection, filename string) ([]byte, error) {
	abs, err := f.safeName(col, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: %s/%s: %w", col, filename, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", filename, err)
	}
	return data, nil
}

// Tags returns the sidecar tag list for a stored document.
func (f *FS) Tags(col models.Collection, filename string) ([]string, error) {
	abs, err := f.safeName(col, filename)
	if err != nil {
		return nil, err
	}
	return readSidecar(sidecarPath(abs))
}

// sidecarPath maps an absolute Markdown path to its tag file.
func sidecarPath(mdPath string) string {
	return strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + SidecarSuffix
}

// readSidecar loads a tag file. Absence is an empty list; malformed JSON is
// a hard error so listings never serve silently wrong tags.
func readSidecar(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("storage: read sidecar %s: %w", filepath.Base(path), err)
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("storage: malformed sidecar %s: %w", filepath.Base(path), err)
	}
	if sc.Tags == nil {
		return []string{}, nil
	}
	return sc.Tags, nil
}

// dedupe drops repeated tags while preserving first-seen order.
func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// writeAtomic writes content via tmp file, fsync, rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".homesite-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
