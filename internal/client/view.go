package client

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
)

var mdRenderer = goldmark.New()

// View is a render-ready snapshot: filtered, sorted document lists plus the
// tag vocabulary derived from both collections.
type View struct {
	Blogs     []Document
	Notes     []Document
	Tags      []string
	ActiveTag string
}

// Render projects the current state into a View. A document is visible iff
// no tag filter is active or its tag list contains the active tag. The tag
// panel is the sorted union of all tags across both collections, recomputed
// on every call.
func (a *App) Render() View {
	return RenderState(a.state)
}

// RenderState is the pure projection behind Render.
func RenderState(s State) View {
	return View{
		Blogs:     visibleDocs(s.Blogs, s.ActiveTag),
		Notes:     visibleDocs(s.Notes, s.ActiveTag),
		Tags:      tagUnion(s.Blogs, s.Notes),
		ActiveTag: s.ActiveTag,
	}
}

func visibleDocs(docs map[string]Document, activeTag string) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if activeTag == "" || hasTag(doc, activeTag) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func hasTag(doc Document, tag string) bool {
	for _, t := range doc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func tagUnion(maps ...map[string]Document) []string {
	seen := map[string]struct{}{}
	for _, docs := range maps {
		for _, doc := range docs {
			for _, t := range doc.Tags {
				seen[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RenderHTML converts a document's Markdown to HTML for detail display.
// FullContent is preferred when populated.
func RenderHTML(doc Document) (string, error) {
	src := doc.Content
	if doc.FullContent != "" {
		src = doc.FullContent
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
