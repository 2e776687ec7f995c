package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/catalog"
	"github.com/ternarybob/colligo/internal/services/data"
)

// CollectionHandler serves collection metadata, stored data, and exports
type CollectionHandler struct {
	registry    *catalog.Registry
	dataService *data.Service
	logger      arbor.ILogger
}

func NewCollectionHandler(registry *catalog.Registry, dataService *data.Service, logger arbor.ILogger) *CollectionHandler {
	return &CollectionHandler{
		registry:    registry,
		dataService: dataService,
		logger:      logger,
	}
}

// collectionInfo is the wire form of a catalog entry plus its record count
type collectionInfo struct {
	Name           string   `json:"name"`
	Domain         string   `json:"domain"`
	Title          string   `json:"title"`
	KeyFields      []string `json:"key_fields"`
	RequiredParams []string `json:"required_params,omitempty"`
	FanoutParam    string   `json:"fanout_param,omitempty"`
	Records        int      `json:"records"`
}

func (h *CollectionHandler) describe(collection *catalog.Collection) collectionInfo {
	count, err := h.dataService.Count(collection.Name)
	if err != nil {
		h.logger.Warn().Err(err).Str("collection", collection.Name).Msg("Failed to count records")
	}
	return collectionInfo{
		Name:           collection.Name,
		Domain:         collection.Domain,
		Title:          collection.Title,
		KeyFields:      collection.KeyFields,
		RequiredParams: collection.RequiredParams,
		FanoutParam:    collection.FanoutParam,
		Records:        count,
	}
}

// ListHandler handles GET /api/collections
func (h *CollectionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	collections := h.registry.List()
	infos := make([]collectionInfo, 0, len(collections))
	for _, collection := range collections {
		infos = append(infos, h.describe(collection))
	}

	WriteData(w, infos)
}

// DomainListHandler handles GET /api/{domain}/collections
func (h *CollectionHandler) DomainListHandler(w http.ResponseWriter, r *http.Request, domain string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	collections := h.registry.ByDomain(domain)
	if len(collections) == 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("domain not found: %s", domain))
		return
	}

	infos := make([]collectionInfo, 0, len(collections))
	for _, collection := range collections {
		infos = append(infos, h.describe(collection))
	}

	WriteData(w, infos)
}

// resolve looks up a collection and checks it belongs to the requested domain
func (h *CollectionHandler) resolve(w http.ResponseWriter, domain, name string) (*catalog.Collection, bool) {
	collection, ok := h.registry.Get(name)
	if !ok || collection.Domain != domain {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("collection not found: %s/%s", domain, name))
		return nil, false
	}
	return collection, true
}

// DataHandler handles GET /api/{domain}/collections/{name}/data
func (h *CollectionHandler) DataHandler(w http.ResponseWriter, r *http.Request, domain, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	collection, ok := h.resolve(w, domain, name)
	if !ok {
		return
	}

	page, pageSize := GetPaginationParams(r)
	records, total, err := h.dataService.List(collection.Name, page, pageSize)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection.Name).Msg("Failed to list records")
		WriteError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.Fields)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       rows,
		"pagination": NewPagination(page, pageSize, total),
	})
}

// ClearHandler handles DELETE /api/{domain}/collections/{name}/data.
// It removes every stored record of the collection and reports the count.
func (h *CollectionHandler) ClearHandler(w http.ResponseWriter, r *http.Request, domain, name string) {
	collection, ok := h.resolve(w, domain, name)
	if !ok {
		return
	}

	count, err := h.dataService.Count(collection.Name)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection.Name).Msg("Failed to count records")
		WriteError(w, http.StatusInternalServerError, "failed to clear collection")
		return
	}

	if err := h.dataService.Clear(collection.Name); err != nil {
		h.logger.Error().Err(err).Str("collection", collection.Name).Msg("Failed to clear collection")
		WriteError(w, http.StatusInternalServerError, "failed to clear collection")
		return
	}

	h.logger.Info().
		Str("collection", collection.Name).
		Int("deleted", count).
		Msg("Collection cleared")

	WriteData(w, map[string]interface{}{
		"collection":    collection.Name,
		"deleted_count": count,
	})
}

// ExportHandler handles GET /api/{domain}/collections/{name}/export
func (h *CollectionHandler) ExportHandler(w http.ResponseWriter, r *http.Request, domain, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	collection, ok := h.resolve(w, domain, name)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", collection.Name+".csv"))

	if err := h.dataService.ExportCSV(w, collection.Name); err != nil {
		// Headers are already out; log instead of switching to a JSON error
		h.logger.Error().Err(err).Str("collection", collection.Name).Msg("CSV export failed")
	}
}
