package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/services/refresh"
	"github.com/ternarybob/colligo/internal/tasks"
)

// RefreshHandler starts refresh tasks and reports their status
type RefreshHandler struct {
	registry       *catalog.Registry
	refreshService *refresh.Service
	taskMgr        *tasks.Manager
	logger         arbor.ILogger
}

func NewRefreshHandler(registry *catalog.Registry, refreshService *refresh.Service, taskMgr *tasks.Manager, logger arbor.ILogger) *RefreshHandler {
	return &RefreshHandler{
		registry:       registry,
		refreshService: refreshService,
		taskMgr:        taskMgr,
		logger:         logger,
	}
}

// RefreshHandler handles POST /api/{domain}/collections/{name}/refresh.
// Query parameters are forwarded to the provider fetch.
func (h *RefreshHandler) RefreshHandler(w http.ResponseWriter, r *http.Request, domain, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	collection, ok := h.registry.Get(name)
	if !ok || collection.Domain != domain {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("collection not found: %s/%s", domain, name))
		return
	}

	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	for _, required := range collection.RequiredParams {
		if params[required] == "" {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("missing required parameter: %s", required))
			return
		}
	}

	taskID := h.refreshService.Start(name, params)

	h.logger.Info().
		Str("collection", name).
		Str("task_id", taskID).
		Msg("Refresh started")

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"data": map[string]string{
			"task_id":    taskID,
			"collection": name,
		},
	})
}

// StatusHandler handles GET /api/{domain}/collections/{name}/refresh/status/{taskId}
func (h *RefreshHandler) StatusHandler(w http.ResponseWriter, r *http.Request, taskID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	task := h.taskMgr.Get(taskID)
	if task == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("task not found: %s", taskID))
		return
	}

	WriteData(w, task)
}

// ListTasksHandler handles GET /api/tasks
func (h *RefreshHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteData(w, h.taskMgr.List())
}
