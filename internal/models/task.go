package models

import (
	"time"
)

// TaskStatus represents the lifecycle state of an asynchronous task
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailed  TaskStatus = "failed"
)

// TaskProgress is a (current, total) counter pair. Total defaults to 100.
// Monotonicity of Current is a caller contract, not enforced here.
type TaskProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Task is an in-memory record tracking one asynchronous job's lifecycle
// and outcome. Tasks are never persisted; they live for the process
// lifetime or until swept.
//
// Lifecycle: pending -> running -> success|failed. A job that fails before
// it starts may go pending -> failed directly; StartedAt stays nil in that
// case. No transition leaves a terminal state except deletion.
type Task struct {
	ID          string       `json:"id"`
	Kind        string       `json:"kind"`
	Status      TaskStatus   `json:"status"`
	Progress    TaskProgress `json:"progress"`
	Message     string       `json:"message"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Result      interface{}  `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// IsTerminal returns true once the task reached success or failed
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusSuccess || t.Status == TaskStatusFailed
}

// RefreshResult summarizes a completed refresh job. For single-fetch jobs
// Succeeded/Failed describe the one fetch; for batch jobs they count
// sub-items.
type RefreshResult struct {
	Collection string   `json:"collection"`
	Fetched    int      `json:"fetched"`
	Saved      int      `json:"saved"`
	Skipped    int      `json:"skipped"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}
