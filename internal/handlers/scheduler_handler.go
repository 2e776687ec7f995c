package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/services/refresh"
)

// SchedulerHandler exposes manual control of the refresh scheduler
type SchedulerHandler struct {
	scheduler *refresh.Scheduler
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler. The scheduler is nil
// when scheduled refreshes are disabled in config.
func NewSchedulerHandler(scheduler *refresh.Scheduler, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// TriggerHandler handles POST /api/scheduler/run. It starts a refresh of
// every configured collection immediately, without waiting for the cron
// schedule.
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.scheduler == nil {
		WriteError(w, http.StatusConflict, "scheduled refreshes are disabled")
		return
	}

	h.scheduler.RunNow()
	WriteMessage(w, "scheduled refresh run started")
}
