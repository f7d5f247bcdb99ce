package index

// DocumentIndex defines the interface for index operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type DocumentIndex interface {
	UpsertDocument(row DocumentRow, body string) error
	DeleteDocument(collection, filename string) error
	GetChecksum(collection, filename string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query, collection string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time.
var _ DocumentIndex = (*DB)(nil)
