package data

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/models"
)

// memStorage is an in-memory RecordStorage for service tests
type memStorage struct {
	records   map[string]*models.StoredRecord
	upsertErr error
}

func newMemStorage() *memStorage {
	return &memStorage{records: make(map[string]*models.StoredRecord)}
}

func (m *memStorage) Upsert(record *models.StoredRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *memStorage) Get(id string) (*models.StoredRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: %s", id)
	}
	return record, nil
}

func (m *memStorage) collection(collection string) []*models.StoredRecord {
	result := []*models.StoredRecord{}
	for _, record := range m.records {
		if record.Collection == collection {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

func (m *memStorage) List(collection string, offset, limit int) ([]*models.StoredRecord, error) {
	all := m.collection(collection)
	if offset >= len(all) {
		return []*models.StoredRecord{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memStorage) Count(collection string) (int, error) {
	return len(m.collection(collection)), nil
}

func (m *memStorage) ForEach(collection string, fn func(*models.StoredRecord) error) error {
	for _, record := range m.collection(collection) {
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStorage) Clear(collection string) error {
	for id, record := range m.records {
		if record.Collection == collection {
			delete(m.records, id)
		}
	}
	return nil
}

func newTestService() (*Service, *memStorage) {
	storage := newMemStorage()
	return NewService(storage, arbor.NewLogger()), storage
}

func TestSave_UpsertsByCompositeKey(t *testing.T) {
	svc, storage := newTestService()

	rows := []models.Row{
		{"symbol": "000001", "date": "2024-01-02", "close": 11.5},
		{"symbol": "000001", "date": "2024-01-03", "close": 11.7},
	}

	result, err := svc.Save("stock_daily", []string{"symbol", "date"}, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 0, result.Skipped)

	record, err := storage.Get("stock_daily/000001:2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 11.5, record.Fields["close"])
}

func TestSave_SecondWriteWins(t *testing.T) {
	svc, storage := newTestService()
	keyFields := []string{"symbol", "date"}

	_, err := svc.Save("stock_daily", keyFields, []models.Row{
		{"symbol": "000001", "date": "2024-01-02", "close": 11.5},
	})
	require.NoError(t, err)

	_, err = svc.Save("stock_daily", keyFields, []models.Row{
		{"symbol": "000001", "date": "2024-01-02", "close": 12.0},
	})
	require.NoError(t, err)

	count, _ := svc.Count("stock_daily")
	assert.Equal(t, 1, count, "re-upserting the same key must not duplicate")

	record, err := storage.Get("stock_daily/000001:2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 12.0, record.Fields["close"])
}

func TestSave_SkipsMalformedRows(t *testing.T) {
	svc, _ := newTestService()

	rows := []models.Row{
		{"symbol": "000001", "date": "2024-01-02"},
		{"symbol": "000002"}, // missing date
		{"date": "2024-01-02"}, // missing symbol
		{"symbol": "", "date": "2024-01-02"}, // empty symbol
		{"symbol": "000003", "date": "2024-01-02"},
	}

	result, err := svc.Save("stock_daily", []string{"symbol", "date"}, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 3, result.Skipped)
}

func TestSave_StorageErrorIsFatal(t *testing.T) {
	svc, storage := newTestService()
	storage.upsertErr = fmt.Errorf("disk full")

	_, err := svc.Save("stock_daily", []string{"symbol"}, []models.Row{{"symbol": "000001"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestList_Pagination(t *testing.T) {
	svc, _ := newTestService()

	rows := make([]models.Row, 5)
	for i := range rows {
		rows[i] = models.Row{"code": fmt.Sprintf("16100%d", i)}
	}
	_, err := svc.Save("fund_info", []string{"code"}, rows)
	require.NoError(t, err)

	page, total, err := svc.List("fund_info", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "161002", page[0].Key)
	assert.Equal(t, "161003", page[1].Key)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Save("fund_nav", []string{"code", "date"}, []models.Row{
		{"code": "161005", "date": "2024-01-02", "nav": 1.234},
		{"code": "161005", "date": "2024-01-03", "nav": 1.240, "acc_nav": 3.1},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(&buf, "fund_nav"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	// Header is the sorted union of field names
	assert.Equal(t, "acc_nav,code,date,nav", string(lines[0]))
	assert.Equal(t, ",161005,2024-01-02,1.234", string(lines[1]))
	assert.Equal(t, "3.1,161005,2024-01-03,1.24", string(lines[2]))
}

func TestClear(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Save("fund_info", []string{"code"}, []models.Row{{"code": "161005"}})
	require.NoError(t, err)

	require.NoError(t, svc.Clear("fund_info"))
	count, _ := svc.Count("fund_info")
	assert.Equal(t, 0, count)
}
