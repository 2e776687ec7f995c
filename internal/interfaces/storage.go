package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// RecordStorage persists collection records with duplicate-safe writes.
// Upserts are matched by document ID (collection + composite key), so a
// crash mid-batch is recoverable by re-running the refresh.
type RecordStorage interface {
	// Upsert inserts or replaces the record matched by its ID
	Upsert(record *models.StoredRecord) error

	// Get returns the record with the given ID, or an error if missing
	Get(id string) (*models.StoredRecord, error)

	// List returns records for a collection ordered by key ascending
	List(collection string, offset, limit int) ([]*models.StoredRecord, error)

	// Count returns the number of records stored for a collection
	Count(collection string) (int, error)

	// ForEach visits every record of a collection in key order
	ForEach(collection string, fn func(*models.StoredRecord) error) error

	// Clear removes all records of a collection
	Clear(collection string) error
}

// StorageManager owns the storage backends and their lifecycle
type StorageManager interface {
	RecordStorage() RecordStorage
	Close() error
}
