//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the documents table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	// Body is already stored in the documents table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in),
// optionally restricted to one collection.
func (db *DB) Search(query, collection string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT collection, filename, title, substr(body, 1, 200)
		FROM documents
		WHERE (title LIKE ? OR body LIKE ? OR tags LIKE ?)
		  AND (? = '' OR collection = ?)
		LIMIT ?
	`, like, like, like, collection, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Collection, &r.Filename, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
