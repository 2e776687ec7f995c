package server

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/status", s.app.APIHandler.StatusHandler)

	// API routes - Collections and tasks
	mux.HandleFunc("/api/collections", s.app.CollectionHandler.ListHandler)
	mux.HandleFunc("/api/tasks", s.app.RefreshHandler.ListTasksHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/run", s.app.SchedulerHandler.TriggerHandler)

	// Domain-scoped collection routes: /api/{domain}/collections/...
	mux.HandleFunc("/api/", s.handleDomainRoutes)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handleDomainRoutes dispatches /api/{domain}/collections/{name}/{op} requests.
// Exact /api/* registrations above take precedence; anything else lands here.
func (s *Server) handleDomainRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	// ["api", domain, "collections", name?, op...]
	if len(parts) < 3 || parts[0] != "api" || parts[2] != "collections" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	domain := parts[1]

	// GET /api/{domain}/collections
	if len(parts) == 3 {
		s.app.CollectionHandler.DomainListHandler(w, r, domain)
		return
	}
	name := parts[3]

	switch {
	// GET/DELETE /api/{domain}/collections/{name}/data
	case len(parts) == 5 && parts[4] == "data" && r.Method == http.MethodDelete:
		s.app.CollectionHandler.ClearHandler(w, r, domain, name)

	case len(parts) == 5 && parts[4] == "data":
		s.app.CollectionHandler.DataHandler(w, r, domain, name)

	case len(parts) == 5 && parts[4] == "export":
		s.app.CollectionHandler.ExportHandler(w, r, domain, name)

	case len(parts) == 5 && parts[4] == "refresh":
		s.app.RefreshHandler.RefreshHandler(w, r, domain, name)

	// GET /api/{domain}/collections/{name}/refresh/status/{taskId}
	case len(parts) == 7 && parts[4] == "refresh" && parts[5] == "status":
		s.app.RefreshHandler.StatusHandler(w, r, parts[6])

	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
