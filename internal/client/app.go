package client

import (
	"context"
	"log/slog"
	"time"

	"homesite/internal/meta"
	"homesite/internal/models"
)

// Mode selects whether the app reconciles with a server or runs standalone.
type Mode string

const (
	// ModeConnected fetches server listings and pushes uploads.
	ModeConnected Mode = "connected"
	// ModeLocalOnly never touches the network; local state is authoritative.
	ModeLocalOnly Mode = "local-only"
)

// State holds the title-keyed document mappings for both collections plus
// the single active tag filter. An empty ActiveTag means no filter.
type State struct {
	Blogs     map[string]Document
	Notes     map[string]Document
	ActiveTag string
}

// App owns client state. Render functions take the state they need and
// return views instead of mutating shared globals.
type App struct {
	store  *LocalStore
	api    *APIClient
	mode   Mode
	logger *slog.Logger
	state  State
}

// NewApp wires a local store and, in connected mode, an API client.
func NewApp(store *LocalStore, api *APIClient, mode Mode, logger *slog.Logger) *App {
	if mode == ModeLocalOnly {
		api = nil
	}
	return &App{
		store:  store,
		api:    api,
		mode:   mode,
		logger: logger,
		state: State{
			Blogs: map[string]Document{},
			Notes: map[string]Document{},
		},
	}
}

// Mode reports whether the app syncs with a server.
func (a *App) Mode() Mode { return a.mode }

// State returns a snapshot of the current state.
func (a *App) State() State { return a.state }

func storageKey(col models.Collection) string {
	if col == models.CollectionBlog {
		return KeyBlog
	}
	return KeyNote
}

// seedDocument gives first-run users something to look at.
func seedDocument(col models.Collection) Document {
	content := "# Welcome\n\nThis is your first note. Upload Markdown files to replace it."
	title := "Welcome"
	if col == models.CollectionBlog {
		content = "# Getting Started\n\nThis sample post appears until you publish your own. " +
			"Drop a Markdown file onto the upload form to get going."
		title = "Getting Started"
	}

	doc := Document{
		Title:       title,
		Date:        meta.FormatDate(time.Now()),
		Excerpt:     meta.Excerpt(content),
		Content:     content,
		Tags:        []string{},
		FullContent: content,
	}
	if col == models.CollectionBlog {
		doc.ReadTime = meta.ReadTime([]byte(content))
	}
	return doc
}

// LoadCollection hydrates one collection: read local state, seed it on first
// run, merge in the server listing when reachable, and persist the result.
// A dead or absent server is not an error; the client runs standalone.
func (a *App) LoadCollection(ctx context.Context, col models.Collection) error {
	key := storageKey(col)
	local := a.store.Load(key)

	if len(local) == 0 {
		seed := seedDocument(col)
		local[seed.Title] = seed
	}

	if a.api != nil {
		server, err := a.api.ListDocuments(ctx, col)
		if err != nil {
			a.logger.Warn("server unreachable, using local data",
				slog.String("collection", string(col)), slog.String("error", err.Error()))
		} else {
			local = Merge(local, server)
		}
	}

	if err := a.store.Save(key, local); err != nil {
		return err
	}
	a.setCollection(col, local)
	return nil
}

// Merge inserts server documents whose titles are absent from the local
// mapping. Existing local entries are never overwritten (local wins), which
// makes the merge idempotent and order-independent for a fixed listing.
func Merge(local map[string]Document, server []models.Document) map[string]Document {
	merged := make(map[string]Document, len(local)+len(server))
	for title, doc := range local {
		merged[title] = doc
	}
	for _, sd := range server {
		if _, ok := merged[sd.Title]; ok {
			continue
		}
		tags := sd.Tags
		if tags == nil {
			tags = []string{}
		}
		merged[sd.Title] = Document{
			Title:       sd.Title,
			Date:        sd.Date,
			ReadTime:    sd.ReadTime,
			Excerpt:     sd.Excerpt,
			Content:     sd.Content,
			Tags:        tags,
			FullContent: sd.Content,
		}
	}
	return merged
}

// ProcessUpload derives the document's metadata the same way the server
// does, inserts it locally (last write wins on title collision), persists,
// and then pushes the file to the server. The local insert is unconditional:
// a failed upload request keeps local state intact.
func (a *App) ProcessUpload(ctx context.Context, col models.Collection, filename string, content []byte, tags []string) (Document, error) {
	if tags == nil {
		tags = []string{}
	}

	doc := Document{
		Title:       meta.Title(content, filename),
		Date:        meta.FormatDate(time.Now()),
		Excerpt:     meta.Excerpt(string(content)),
		Content:     string(content),
		Tags:        tags,
		FullContent: string(content),
	}
	if col == models.CollectionBlog {
		doc.ReadTime = meta.ReadTime(content)
	}

	key := storageKey(col)
	docs := a.collection(col)
	docs[doc.Title] = doc
	if err := a.store.Save(key, docs); err != nil {
		return Document{}, err
	}
	a.setCollection(col, docs)

	if a.api != nil {
		if _, err := a.api.Upload(ctx, col, filename, content, tags); err != nil {
			a.logger.Warn("upload not delivered to server, kept locally",
				slog.String("collection", string(col)),
				slog.String("filename", filename),
				slog.String("error", err.Error()))
		}
	}

	return doc, nil
}

// FilterByTag sets the single global active tag.
func (a *App) FilterByTag(tag string) {
	a.state.ActiveTag = tag
}

// ClearTagFilter removes the active tag.
func (a *App) ClearTagFilter() {
	a.state.ActiveTag = ""
}

func (a *App) collection(col models.Collection) map[string]Document {
	if col == models.CollectionBlog {
		return a.state.Blogs
	}
	return a.state.Notes
}

func (a *App) setCollection(col models.Collection, docs map[string]Document) {
	if col == models.CollectionBlog {
		a.state.Blogs = docs
	} else {
		a.state.Notes = docs
	}
}
