// Package tasks provides the in-memory task registry used to track
// asynchronous refresh jobs. Background jobs report progress through the
// manager and polling clients observe outcomes by task ID, without coupling
// job logic to any transport.
package tasks

import (
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/metrics"
	"github.com/ternarybob/colligo/internal/models"
)

const defaultProgressTotal = 100

// Manager is a process-wide registry of task records keyed by task ID.
// The map is guarded by a mutex for memory safety; each task is mutated by
// exactly one owning job at a time (caller contract), so progress
// monotonicity is not enforced here.
type Manager struct {
	mu     sync.RWMutex
	tasks  map[string]*models.Task
	logger arbor.ILogger

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
}

// NewManager creates a new task manager
func NewManager(logger arbor.ILogger) *Manager {
	return &Manager{
		tasks:  make(map[string]*models.Task),
		logger: logger,
	}
}

// Create allocates a new task in state pending. Always succeeds.
func (m *Manager) Create(kind, description string) string {
	task := &models.Task{
		ID:     common.NewTaskID(),
		Kind:   kind,
		Status: models.TaskStatusPending,
		Progress: models.TaskProgress{
			Current: 0,
			Total:   defaultProgressTotal,
		},
		Message:   description,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()

	m.logger.Debug().
		Str("task_id", task.ID).
		Str("kind", kind).
		Msg("Task created")

	m.updateActiveGauge()
	return task.ID
}

// Start transitions a pending task to running. Silently ignored for unknown
// IDs, since callers received the ID from Create.
func (m *Manager) Start(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.Status != models.TaskStatusPending {
		return
	}

	now := time.Now()
	task.Status = models.TaskStatusRunning
	task.StartedAt = &now
}

// UpdateProgress overwrites progress fields and message while running.
// Bounds and monotonicity are not validated.
func (m *Manager) UpdateProgress(id string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.Status != models.TaskStatusRunning {
		return
	}

	task.Progress.Current = current
	if total > 0 {
		task.Progress.Total = total
	}
	task.Message = message
}

// Complete transitions a task to success, stores the result, and forces
// progress to its total.
func (m *Manager) Complete(id string, result interface{}, message string) {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok || task.IsTerminal() {
		m.mu.Unlock()
		return
	}

	now := time.Now()
	task.Status = models.TaskStatusSuccess
	task.CompletedAt = &now
	task.Result = result
	task.Message = message
	task.Progress.Current = task.Progress.Total
	m.mu.Unlock()

	m.logger.Info().
		Str("task_id", id).
		Str("kind", task.Kind).
		Msg("Task completed")

	m.updateActiveGauge()
}

// Fail transitions a task to failed and stores the error. Legal from both
// running and pending: a job that fails before it starts must not leave its
// task stuck at pending until swept.
func (m *Manager) Fail(id string, errMsg string) {
	m.mu.Lock()
	task, ok := m.tasks[id]
	if !ok || task.IsTerminal() {
		m.mu.Unlock()
		return
	}

	now := time.Now()
	task.Status = models.TaskStatusFailed
	task.CompletedAt = &now
	task.Error = errMsg
	task.Message = "failed: " + errMsg
	m.mu.Unlock()

	m.logger.Warn().
		Str("task_id", id).
		Str("kind", task.Kind).
		Str("error", errMsg).
		Msg("Task failed")

	m.updateActiveGauge()
}

// Get returns a snapshot copy of the task, or nil if unknown
func (m *Manager) Get(id string) *models.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil
	}
	snapshot := *task
	return &snapshot
}

// List returns snapshot copies of all tasks, newest first
func (m *Manager) List() []*models.Task {
	m.mu.RLock()
	result := make([]*models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		snapshot := *task
		result = append(result, &snapshot)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Delete removes a task unconditionally
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.tasks, id)
	m.mu.Unlock()

	m.updateActiveGauge()
}

// Sweep removes every completed task whose CompletedAt is older than maxAge.
// Pending and running tasks are never removed regardless of age. Returns the
// number of tasks removed.
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	m.mu.Lock()
	for id, task := range m.tasks {
		if task.IsTerminal() && task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			delete(m.tasks, id)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Debug().
			Int("removed", removed).
			Msg("Swept completed tasks")
	}
	return removed
}

// StartSweeper begins periodic sweeping of completed tasks
func (m *Manager) StartSweeper(interval, maxAge time.Duration) {
	m.mu.Lock()
	if m.sweepStop != nil {
		m.mu.Unlock()
		return
	}
	m.sweepStop = make(chan struct{})
	stop := m.sweepStop
	m.mu.Unlock()

	m.sweepWG.Add(1)
	go func() {
		defer m.sweepWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep(maxAge)
			case <-stop:
				return
			}
		}
	}()

	m.logger.Info().
		Dur("interval", interval).
		Dur("max_age", maxAge).
		Msg("Task sweeper started")
}

// Stop stops the background sweeper
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.sweepStop == nil {
		m.mu.Unlock()
		return
	}
	close(m.sweepStop)
	m.sweepStop = nil
	m.mu.Unlock()

	m.sweepWG.Wait()
	m.logger.Info().Msg("Task sweeper stopped")
}

func (m *Manager) updateActiveGauge() {
	m.mu.RLock()
	active := 0
	for _, task := range m.tasks {
		if !task.IsTerminal() {
			active++
		}
	}
	m.mu.RUnlock()

	metrics.UpdateActiveTasks(active)
}
