// Package refresh executes collection refresh jobs end-to-end: resolve the
// collection, fetch rows from the provider, upsert them into the store, and
// surface the outcome exclusively through a task.
package refresh

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/metrics"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/data"
	"github.com/ternarybob/colligo/internal/tasks"
)

// Fetcher retrieves rows for a named provider dataset
type Fetcher interface {
	Fetch(ctx context.Context, dataset string, params url.Values) ([]models.Row, error)
}

// Service runs refresh jobs for registered collections
type Service struct {
	registry    *catalog.Registry
	fetcher     Fetcher
	dataService *data.Service
	taskMgr     *tasks.Manager
	logger      arbor.ILogger
	concurrency int
}

// NewService creates a new refresh service. Concurrency caps the number of
// in-flight sub-fetches during a batch refresh.
func NewService(registry *catalog.Registry, fetcher Fetcher, dataService *data.Service, taskMgr *tasks.Manager, logger arbor.ILogger, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		registry:    registry,
		fetcher:     fetcher,
		dataService: dataService,
		taskMgr:     taskMgr,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Start creates a task for a refresh and schedules the job in the
// background. The returned task ID is the caller's only handle on the
// outcome; poll the task to observe completion or failure.
func (s *Service) Start(collection string, params map[string]string) string {
	taskID := s.taskMgr.Create(collection, fmt.Sprintf("refresh %s", collection))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Str("task_id", taskID).
					Str("collection", collection).
					Str("panic", fmt.Sprintf("%v", r)).
					Msg("Refresh job panicked")
				s.taskMgr.Fail(taskID, fmt.Sprintf("internal error: %v", r))
			}
		}()

		s.Run(context.Background(), taskID, collection, params)
	}()

	return taskID
}

// Run executes one refresh job. All failures are absorbed into the task;
// Run never returns an error and never panics out.
func (s *Service) Run(ctx context.Context, taskID, collectionName string, params map[string]string) {
	started := time.Now()
	metrics.RecordRefreshStarted(collectionName)

	fail := func(msg string) {
		s.taskMgr.Fail(taskID, msg)
		metrics.RecordRefreshFailed(collectionName, time.Since(started))
	}

	collection, ok := s.registry.Get(collectionName)
	if !ok {
		// Task goes pending -> failed directly; it must never stay pending
		fail(fmt.Sprintf("collection not found: %s", collectionName))
		return
	}

	for _, required := range collection.RequiredParams {
		if params[required] == "" {
			fail(fmt.Sprintf("missing required parameter %q for collection %s", required, collectionName))
			return
		}
	}

	s.taskMgr.Start(taskID)

	var result *models.RefreshResult
	if values := fanoutValues(collection, params); len(values) > 0 {
		result = s.runBatch(ctx, taskID, collection, params, values)
	} else {
		result = s.runSingle(ctx, taskID, collection, params)
	}

	// A batch succeeds as long as it ran, even with partial sub-item
	// failures; it fails only when every item failed.
	if result.Succeeded == 0 && result.Failed > 0 {
		msg := fmt.Sprintf("all %d fetches failed", result.Failed)
		if len(result.Errors) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, result.Errors[0])
		}
		fail(msg)
		return
	}

	s.taskMgr.Complete(taskID, result, fmt.Sprintf("saved %d of %d rows", result.Saved, result.Fetched))
	metrics.RecordRefreshCompleted(collectionName, time.Since(started))
}

// runSingle performs a one-shot fetch-and-save refresh
func (s *Service) runSingle(ctx context.Context, taskID string, collection *catalog.Collection, params map[string]string) *models.RefreshResult {
	result := &models.RefreshResult{Collection: collection.Name}

	s.taskMgr.UpdateProgress(taskID, 10, 100, "fetching "+collection.Dataset)

	rows, err := s.fetcher.Fetch(ctx, collection.Dataset, toQuery(params))
	if err != nil {
		result.Failed = 1
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Fetched = len(rows)

	s.taskMgr.UpdateProgress(taskID, 60, 100, fmt.Sprintf("saving %d rows", len(rows)))

	saveResult, err := s.dataService.Save(collection.Name, collection.KeyFields, rows)
	if saveResult != nil {
		result.Saved = saveResult.Saved
		result.Skipped = saveResult.Skipped
	}
	if err != nil {
		result.Failed = 1
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Succeeded = 1
	return result
}

// runBatch fans a refresh out over the fan-out parameter's values with
// bounded concurrency. A single item's failure does not abort the batch; it
// is recorded and the batch continues. No rollback.
func (s *Service) runBatch(ctx context.Context, taskID string, collection *catalog.Collection, params map[string]string, values []string) *models.RefreshResult {
	result := &models.RefreshResult{Collection: collection.Name}
	total := len(values)

	s.taskMgr.UpdateProgress(taskID, 0, total, fmt.Sprintf("fetching %d items", total))

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)
	semaphore := make(chan struct{}, s.concurrency)

	for _, value := range values {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(value string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			itemParams := toQuery(params)
			itemParams.Set(collection.FanoutParam, value)

			rows, saveResult, err := s.runItem(ctx, collection, itemParams)

			mu.Lock()
			defer mu.Unlock()

			done++
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", value, err))
				s.logger.Warn().
					Err(err).
					Str("collection", collection.Name).
					Str(collection.FanoutParam, value).
					Msg("Batch item failed")
			} else {
				result.Succeeded++
				result.Fetched += len(rows)
				result.Saved += saveResult.Saved
				result.Skipped += saveResult.Skipped
			}

			s.taskMgr.UpdateProgress(taskID, done, total, fmt.Sprintf("processed %d/%d", done, total))
		}(value)
	}

	wg.Wait()
	return result
}

// runItem fetches and saves one batch sub-item. A panic here must not cross
// the fan-out boundary; it is converted into the item's error so the batch
// aggregates it like any other sub-item failure.
func (s *Service) runItem(ctx context.Context, collection *catalog.Collection, itemParams url.Values) (rows []models.Row, saveResult *data.SaveResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	rows, err = s.fetcher.Fetch(ctx, collection.Dataset, itemParams)
	if err != nil {
		return nil, nil, err
	}

	saveResult, err = s.dataService.Save(collection.Name, collection.KeyFields, rows)
	return rows, saveResult, err
}

// fanoutValues returns the comma-separated values of the collection's
// fan-out parameter, or nil when the refresh is a single fetch
func fanoutValues(collection *catalog.Collection, params map[string]string) []string {
	if collection.FanoutParam == "" {
		return nil
	}
	raw := params[collection.FanoutParam]
	if raw == "" {
		return nil
	}

	values := []string{}
	for _, v := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func toQuery(params map[string]string) url.Values {
	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	return query
}
