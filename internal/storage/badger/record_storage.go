package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RecordStorage implements the RecordStorage interface for Badger
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStorage {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RecordStorage) Upsert(record *models.StoredRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *RecordStorage) Get(id string) (*models.StoredRecord, error) {
	var record models.StoredRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

func (s *RecordStorage) List(collection string, offset, limit int) ([]*models.StoredRecord, error) {
	query := badgerhold.Where("Collection").Eq(collection).SortBy("Key")
	if offset > 0 {
		query = query.Skip(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.StoredRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	result := make([]*models.StoredRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *RecordStorage) Count(collection string) (int, error) {
	count, err := s.db.Store().Count(&models.StoredRecord{}, badgerhold.Where("Collection").Eq(collection))
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(count), nil
}

func (s *RecordStorage) ForEach(collection string, fn func(*models.StoredRecord) error) error {
	query := badgerhold.Where("Collection").Eq(collection).SortBy("Key")
	err := s.db.Store().ForEach(query, func(record *models.StoredRecord) error {
		return fn(record)
	})
	if err != nil {
		return fmt.Errorf("failed to iterate records: %w", err)
	}
	return nil
}

func (s *RecordStorage) Clear(collection string) error {
	err := s.db.Store().DeleteMatching(&models.StoredRecord{}, badgerhold.Where("Collection").Eq(collection))
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}
