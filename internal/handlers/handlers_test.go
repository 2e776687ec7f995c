package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/data"
	"github.com/ternarybob/colligo/internal/services/refresh"
	"github.com/ternarybob/colligo/internal/tasks"
)

type stubStorage struct {
	mu      sync.Mutex
	records map[string]*models.StoredRecord
}

func newStubStorage() *stubStorage {
	return &stubStorage{records: make(map[string]*models.StoredRecord)}
}

func (s *stubStorage) Upsert(record *models.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *stubStorage) Get(id string) (*models.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: %s", id)
	}
	return record, nil
}

func (s *stubStorage) collection(collection string) []*models.StoredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*models.StoredRecord{}
	for _, record := range s.records {
		if record.Collection == collection {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

func (s *stubStorage) List(collection string, offset, limit int) ([]*models.StoredRecord, error) {
	all := s.collection(collection)
	if offset >= len(all) {
		return []*models.StoredRecord{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *stubStorage) Count(collection string) (int, error) {
	return len(s.collection(collection)), nil
}

func (s *stubStorage) ForEach(collection string, fn func(*models.StoredRecord) error) error {
	for _, record := range s.collection(collection) {
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubStorage) Clear(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.records {
		if record.Collection == collection {
			delete(s.records, id)
		}
	}
	return nil
}

type stubFetcher struct {
	rows []models.Row
	err  error
}

func (f *stubFetcher) Fetch(ctx context.Context, dataset string, params url.Values) ([]models.Row, error) {
	return f.rows, f.err
}

type testEnv struct {
	api        *APIHandler
	collection *CollectionHandler
	refresh    *RefreshHandler
	refreshSvc *refresh.Service
	taskMgr    *tasks.Manager
	dataSvc    *data.Service
}

func newTestEnv(t *testing.T, fetcher refresh.Fetcher) *testEnv {
	t.Helper()

	logger := arbor.NewLogger()
	registry, err := catalog.DefaultRegistry()
	require.NoError(t, err)

	dataSvc := data.NewService(newStubStorage(), logger)
	taskMgr := tasks.NewManager(logger)
	refreshSvc := refresh.NewService(registry, fetcher, dataSvc, taskMgr, logger, 2)

	return &testEnv{
		api:        NewAPIHandler("development", registry, dataSvc, taskMgr, logger),
		collection: NewCollectionHandler(registry, dataSvc, logger),
		refresh:    NewRefreshHandler(registry, refreshSvc, taskMgr, logger),
		refreshSvc: refreshSvc,
		taskMgr:    taskMgr,
		dataSvc:    dataSvc,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func seedQuotes(t *testing.T, env *testEnv, symbols ...string) {
	t.Helper()
	rows := make([]models.Row, 0, len(symbols))
	for _, symbol := range symbols {
		rows = append(rows, models.Row{"symbol": symbol, "price": 10.5})
	}
	_, err := env.dataSvc.Save("stock_quote", []string{"symbol"}, rows)
	require.NoError(t, err)
}

func TestListCollections(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	seedQuotes(t, env, "000001", "000002")

	rec := httptest.NewRecorder()
	env.collection.ListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/collections", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])

	infos := body["data"].([]interface{})
	assert.NotEmpty(t, infos)

	var found bool
	for _, raw := range infos {
		info := raw.(map[string]interface{})
		if info["name"] == "stock_quote" {
			found = true
			assert.Equal(t, float64(2), info["records"])
			assert.Equal(t, "stocks", info["domain"])
		}
	}
	assert.True(t, found, "stock_quote should be listed")
}

func TestDomainListUnknownDomain(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	env.collection.DomainListHandler(rec, httptest.NewRequest(http.MethodGet, "/api/crypto/collections", nil), "crypto")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestDataHandlerPagination(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	seedQuotes(t, env, "000001", "000002", "000003")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/collections/stock_quote/data?page=0&pageSize=2", nil)
	env.collection.DataHandler(rec, req, "stocks", "stock_quote")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Len(t, body["data"].([]interface{}), 2)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total_items"])
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestDataHandlerWrongDomain(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/funds/collections/stock_quote/data", nil)
	env.collection.DataHandler(rec, req, "funds", "stock_quote")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearHandler(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	seedQuotes(t, env, "000001", "000002")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/stocks/collections/stock_quote/data", nil)
	env.collection.ClearHandler(rec, req, "stocks", "stock_quote")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["deleted_count"])

	count, err := env.dataSvc.Count("stock_quote")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestClearHandlerUnknownCollection(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/stocks/collections/bogus/data", nil)
	env.collection.ClearHandler(rec, req, "stocks", "bogus")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportHandler(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	seedQuotes(t, env, "000001")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/collections/stock_quote/export", nil)
	env.collection.ExportHandler(rec, req, "stocks", "stock_quote")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stock_quote.csv")
	assert.Contains(t, rec.Body.String(), "price,symbol\n")
	assert.Contains(t, rec.Body.String(), "10.5,000001\n")
}

func TestRefreshHandlerStartsTask(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{rows: []models.Row{{"symbol": "000001", "date": "2024-01-02"}}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stocks/collections/stock_daily/refresh?symbol=000001", nil)
	env.refresh.RefreshHandler(rec, req, "stocks", "stock_daily")

	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeEnvelope(t, rec)
	taskID := body["data"].(map[string]interface{})["task_id"].(string)
	require.NotEmpty(t, taskID)

	require.Eventually(t, func() bool {
		task := env.taskMgr.Get(taskID)
		return task != nil && task.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.TaskStatusSuccess, env.taskMgr.Get(taskID).Status)
}

func TestRefreshHandlerMissingParam(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/stocks/collections/stock_daily/refresh", nil)
	env.refresh.RefreshHandler(rec, req, "stocks", "stock_daily")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["error"], "symbol")
}

func TestRefreshHandlerRequiresPost(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/collections/stock_daily/refresh", nil)
	env.refresh.RefreshHandler(rec, req, "stocks", "stock_daily")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusHandlerUnknownTask(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/collections/stock_daily/refresh/status/task_missing", nil)
	env.refresh.StatusHandler(rec, req, "task_missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandlerReturnsTask(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	taskID := env.taskMgr.Create("stock_daily", "refresh stock_daily")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stocks/collections/stock_daily/refresh/status/"+taskID, nil)
	env.refresh.StatusHandler(rec, req, taskID)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	task := body["data"].(map[string]interface{})
	assert.Equal(t, taskID, task["id"])
	assert.Equal(t, string(models.TaskStatusPending), task["status"])
}

func TestSchedulerTriggerDisabled(t *testing.T) {
	handler := NewSchedulerHandler(nil, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/run", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestSchedulerTriggerRunsConfiguredCollections(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{rows: []models.Row{{"symbol": "000001"}}})
	scheduler := refresh.NewScheduler(env.refreshSvc, []string{"stock_quote"}, arbor.NewLogger())
	handler := NewSchedulerHandler(scheduler, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])

	require.Eventually(t, func() bool {
		list := env.taskMgr.List()
		return len(list) == 1 && list[0].IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.TaskStatusSuccess, env.taskMgr.List()[0].Status)
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	seedQuotes(t, env, "000001")

	rec := httptest.NewRecorder()
	env.api.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	status := body["data"].(map[string]interface{})
	assert.Equal(t, "development", status["environment"])
	assert.Equal(t, float64(1), status["total_records"])
}

func TestGetPaginationParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	page, pageSize := GetPaginationParams(req)
	assert.Equal(t, 0, page)
	assert.Equal(t, 50, pageSize)

	req = httptest.NewRequest(http.MethodGet, "/api/collections?page=3&pageSize=100", nil)
	page, pageSize = GetPaginationParams(req)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, pageSize)

	// Out-of-range values fall back to defaults
	req = httptest.NewRequest(http.MethodGet, "/api/collections?page=-1&pageSize=10000", nil)
	page, pageSize = GetPaginationParams(req)
	assert.Equal(t, 0, page)
	assert.Equal(t, 50, pageSize)
}
