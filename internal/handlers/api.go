package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/services/data"
	"github.com/ternarybob/colligo/internal/tasks"
)

type APIHandler struct {
	environment string
	registry    *catalog.Registry
	dataService *data.Service
	taskMgr     *tasks.Manager
	startedAt   time.Time
	logger      arbor.ILogger
}

func NewAPIHandler(environment string, registry *catalog.Registry, dataService *data.Service, taskMgr *tasks.Manager, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		environment: environment,
		registry:    registry,
		dataService: dataService,
		taskMgr:     taskMgr,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// StatusHandler handles GET /api/status
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	totalRecords := 0
	for _, collection := range h.registry.List() {
		count, err := h.dataService.Count(collection.Name)
		if err != nil {
			h.logger.Warn().Err(err).Str("collection", collection.Name).Msg("Failed to count records")
			continue
		}
		totalRecords += count
	}

	running := 0
	for _, task := range h.taskMgr.List() {
		if !task.IsTerminal() {
			running++
		}
	}

	WriteData(w, map[string]interface{}{
		"environment":   h.environment,
		"version":       common.GetVersion(),
		"uptime":        time.Since(h.startedAt).Round(time.Second).String(),
		"collections":   len(h.registry.List()),
		"domains":       h.registry.Domains(),
		"total_records": totalRecords,
		"active_tasks":  running,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   "not found",
		"path":    r.URL.Path,
	})
}
