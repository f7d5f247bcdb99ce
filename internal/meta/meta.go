// Package meta derives display metadata from raw Markdown content.
//
// The server-side listing and the client-side optimistic insert both go
// through these functions, so a confirmed document can never disagree with
// the optimistic copy on title, read time, or excerpt.
package meta

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ExcerptRunes is how much of a document the excerpt shows.
	ExcerptRunes = 150
	// wordsPerMinute is the reading-speed assumption behind read-time labels.
	wordsPerMinute = 200
)

// DateFormat is the calendar-date layout used everywhere a date is shown.
const DateFormat = "2006-01-02"

// Title returns the first line with its "# " marker stripped when the content
// opens with a level-1 heading, otherwise the filename without extension.
func Title(content []byte, filename string) string {
	line, _, _ := strings.Cut(string(content), "\n")
	if rest, ok := strings.CutPrefix(line, "# "); ok {
		if t := strings.TrimSpace(rest); t != "" {
			return t
		}
	}
	return Stem(filename)
}

// Stem strips the extension from a filename.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WordCount counts whitespace-separated words.
func WordCount(content []byte) int {
	return len(strings.Fields(string(content)))
}

// ReadTime returns the "N min read" label for content, at ceil(words/200)
// minutes and never below one minute.
func ReadTime(content []byte) string {
	minutes := (WordCount(content) + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// Excerpt returns the first ExcerptRunes runes of content followed by an
// ellipsis. It is recomputed on every render, never stored.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) > ExcerptRunes {
		r = r[:ExcerptRunes]
	}
	return string(r) + "..."
}

// FormatDate renders t as a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
