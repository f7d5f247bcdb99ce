package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Collection string
	Filename   string
	Title      string
	Checksum   string
	Tags       []string
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Collection string `json:"collection"`
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document and its FTS entry within a
// transaction.
func (db *DB) UpsertDocument(row DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (collection, filename, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, filename) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Collection, row.Filename, row.Title, row.Checksum, string(tagsJSON), body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Collection, row.Filename, row.Title, body, row.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(collection, filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, collection, filename)
	_, _ = tx.Exec(`DELETE FROM documents WHERE collection = ? AND filename = ?`, collection, filename)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// it is not indexed.
func (db *DB) GetChecksum(collection, filename string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE collection = ? AND filename = ?`,
		collection, filename).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns every indexed document keyed by "collection/filename".
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT collection, filename, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var col, name, cs string
		if err := rows.Scan(&col, &name, &cs); err != nil {
			return nil, err
		}
		out[col+"/"+name] = cs
	}
	return out, rows.Err()
}
