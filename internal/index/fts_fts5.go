//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			collection UNINDEXED,
			filename UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, collection, filename, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE collection = ? AND filename = ?`, collection, filename)
	_, err := tx.Exec(`INSERT INTO documents_fts (collection, filename, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		collection, filename, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, collection, filename string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE collection = ? AND filename = ?`, collection, filename)
}

// Search performs an FTS5 full-text search, optionally restricted to one
// collection, and returns matching results with snippets.
func (db *DB) Search(query, collection string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT collection,
		       filename,
		       title,
		       snippet(documents_fts, 3, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		  AND (? = '' OR collection = ?)
		ORDER BY rank
		LIMIT ?
	`, query, collection, collection, limit)
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
