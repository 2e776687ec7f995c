// Package data owns the read/write logic for collection records: translating
// fetched rows into duplicate-safe upserts, paginated reads, and CSV export.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/metrics"
	"github.com/ternarybob/colligo/internal/models"
)

// SaveResult reports the outcome of persisting a batch of rows
type SaveResult struct {
	Saved   int
	Skipped int
}

// Service translates fetched tabular rows into persisted documents
type Service struct {
	storage interfaces.RecordStorage
	logger  arbor.ILogger
}

// NewService creates a new data service
func NewService(storage interfaces.RecordStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Save upserts one document per row, matched by the composite key built from
// keyFields. A row missing a key field is skipped, not fatal to the batch.
// There is no transaction across rows: a failure mid-batch leaves a prefix
// persisted, and re-running the refresh re-upserts the same keys.
func (s *Service) Save(collection string, keyFields []string, rows []models.Row) (*SaveResult, error) {
	result := &SaveResult{}

	for _, row := range rows {
		key, err := models.RecordKey(row, keyFields)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("collection", collection).
				Msg("Skipping malformed row")
			result.Skipped++
			continue
		}

		record := &models.StoredRecord{
			ID:         models.RecordID(collection, key),
			Collection: collection,
			Key:        key,
			Fields:     row,
		}
		if err := s.storage.Upsert(record); err != nil {
			return result, fmt.Errorf("failed to save row %s: %w", key, err)
		}
		result.Saved++
	}

	metrics.RecordRecordsSaved(collection, result.Saved)
	return result, nil
}

// List returns one page of records plus the collection's total count
func (s *Service) List(collection string, page, pageSize int) ([]*models.StoredRecord, int, error) {
	total, err := s.storage.Count(collection)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.storage.List(collection, page*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Count returns the number of stored records for a collection
func (s *Service) Count(collection string) (int, error) {
	return s.storage.Count(collection)
}

// Clear removes all records of a collection
func (s *Service) Clear(collection string) error {
	return s.storage.Clear(collection)
}

// ExportCSV streams every record of a collection as CSV. The header is the
// sorted union of field names across all records; records missing a column
// get an empty cell.
func (s *Service) ExportCSV(w io.Writer, collection string) error {
	// First pass: collect the column set
	columns := map[string]bool{}
	err := s.storage.ForEach(collection, func(record *models.StoredRecord) error {
		for field := range record.Fields {
			columns[field] = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	header := make([]string, 0, len(columns))
	for field := range columns {
		header = append(header, field)
	}
	sort.Strings(header)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Second pass: write rows in key order
	err = s.storage.ForEach(collection, func(record *models.StoredRecord) error {
		row := make([]string, len(header))
		for i, field := range header {
			if value, ok := record.Fields[field]; ok && value != nil {
				row[i] = fmt.Sprintf("%v", value)
			}
		}
		return writer.Write(row)
	})
	if err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
