// Package handlers provides HTTP request handlers for the chargemaster API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/data"
	"github.com/giygas/chargemaster-api/drugparser"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/metrics"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/go-chi/chi/v5"
)

// maxEstimateBody bounds the JSON body of an estimate request
const maxEstimateBody = 64 * 1024

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	defaultMode   pricing.Mode
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// defaultMode prices requests that do not send a price_type.
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker, defaultMode pricing.Mode) interfaces.HTTPHandler {
	if defaultMode == "" {
		defaultMode = pricing.ModeGrossCharge
	}
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		defaultMode:   defaultMode,
	}
}

// ServeHTTP answers requests no route matched
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
}

// HospitalResponse is the body of /v1/hospital
type HospitalResponse struct {
	entities.Hospital
	ItemCount  int    `json:"item_count"`
	LoadedAt   string `json:"loaded_at"`
	IsUpdating bool   `json:"is_updating"`
}

// SearchResponse is the body of /v1/items
type SearchResponse struct {
	Query     string             `json:"query"`
	PriceType pricing.Mode       `json:"price_type"`
	Count     int                `json:"count"`
	Results   []pricing.ItemView `json:"results"`
}

// ParseResponse is the body of /v1/parse
type ParseResponse struct {
	Description string                        `json:"description"`
	Parsed      *drugparser.ParsedDescription `json:"parsed"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	LastUpdate    string         `json:"last_update"`
	DataAgeHours  float64        `json:"data_age_hours"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Uptime        string         `json:"uptime"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", h.lastModified().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithJSONCached writes a JSON response carrying an ETag and answers
// 304 when the client already holds the same body
func (h *HTTPHandlerImpl) RespondWithJSONCached(w http.ResponseWriter, r *http.Request, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := GenerateETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=300")

	if CheckETag(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", h.lastModified().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// lastModified is the load time of the current snapshot, or now before the
// first load
func (h *HTTPHandlerImpl) lastModified() time.Time {
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		return lastUpdated.UTC()
	}
	return time.Now().UTC()
}

// GenerateETag hashes a response body into a quoted 16 hex digit ETag
func GenerateETag(data []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
}

// CheckETag reports whether the request's If-None-Match equals etag
func CheckETag(r *http.Request, etag string) bool {
	return r.Header.Get("If-None-Match") == etag
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// priceMode reads the price_type query parameter
func (h *HTTPHandlerImpl) priceMode(r *http.Request) (pricing.Mode, error) {
	return pricing.ParseMode(r.URL.Query().Get("price_type"), h.defaultMode)
}

// ServeHospitalV1 returns the hospital header of the loaded charge file
func (h *HTTPHandlerImpl) ServeHospitalV1(w http.ResponseWriter, r *http.Request) {
	items := h.dataStore.GetItems()
	if len(items) == 0 {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Charge data not loaded yet")
		return
	}

	response := HospitalResponse{
		Hospital:   h.dataStore.GetHospital(),
		ItemCount:  len(items),
		LoadedAt:   h.dataStore.GetLastUpdated().Format(time.RFC3339),
		IsUpdating: h.dataStore.IsUpdating(),
	}

	h.RespondWithJSONCached(w, r, response)
}

// SearchItemsV1 searches items by description or code
func (h *HTTPHandlerImpl) SearchItemsV1(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing search term")
		return
	}

	if err := h.validator.ValidateInput(query); err != nil {
		logging.Warn("Unusual user input", "q", query)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := h.priceMode(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := data.MaxResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > data.MaxResults {
			h.RespondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid limit: must be between 1 and %d", data.MaxResults))
			return
		}
	}

	matches := data.Search(h.dataStore.GetItems(), query, limit)

	// Always return 200 with results array (empty if no matches)
	results := make([]pricing.ItemView, 0, len(matches))
	for i := range matches {
		results = append(results, pricing.BuildView(&matches[i], mode))
	}

	h.RespondWithJSON(w, http.StatusOK, SearchResponse{
		Query:     strings.TrimSpace(query),
		PriceType: mode,
		Count:     len(results),
		Results:   results,
	})
}

// FindItemV1 returns one item by ID
func (h *HTTPHandlerImpl) FindItemV1(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateItemID(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := h.priceMode(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, exists := h.dataStore.GetItemsMap()[id]
	if !exists {
		h.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}

	h.RespondWithJSONCached(w, r, pricing.BuildView(&item, mode))
}

// ParseDescriptionV1 parses arbitrary description text. A blank description
// yields a null body rather than an error.
func (h *HTTPHandlerImpl) ParseDescriptionV1(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if !params.Has("description") {
		h.RespondWithError(w, http.StatusBadRequest, "Missing description")
		return
	}

	description := params.Get("description")
	if strings.TrimSpace(description) == "" {
		h.RespondWithJSON(w, http.StatusOK, nil)
		return
	}

	if err := h.validator.ValidateDescription(description); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, ParseResponse{
		Description: description,
		Parsed:      drugparser.Parse(description),
	})
}

// CreateEstimateV1 prices a list of items and quantities
func (h *HTTPHandlerImpl) CreateEstimateV1(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEstimateBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var request pricing.EstimateRequest
	if err := decoder.Decode(&request); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	mode, err := pricing.ParseMode(request.PriceType, h.defaultMode)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i := range request.Lines {
		id, err := h.validator.ValidateItemID(request.Lines[i].ItemID)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("line %d: %s", i+1, err))
			return
		}
		request.Lines[i].ItemID = id
	}

	itemsMap := h.dataStore.GetItemsMap()
	lookup := func(id string) (entities.ChargeItem, bool) {
		item, ok := itemsMap[id]
		return item, ok
	}

	estimate, err := pricing.NewEstimate(lookup, mode, request.Lines)
	switch {
	case errors.Is(err, pricing.ErrUnknownItem):
		h.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.EstimatesTotal.Inc()
	logging.Debug("Estimate created", "id", estimate.ID, "lines", len(estimate.Lines), "total", estimate.Total.String())

	h.RespondWithJSON(w, http.StatusCreated, estimate)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, details, httpStatus := h.healthChecker.HealthCheck()

	var uptime time.Duration
	if startTime := h.dataStore.GetServerStartTime(); !startTime.IsZero() {
		uptime = time.Since(startTime)
	}

	lastUpdate, _ := details["last_update"].(string)
	dataAge, _ := details["data_age_hours"].(float64)

	response := HealthResponse{
		Status:        status,
		LastUpdate:    lastUpdate,
		DataAgeHours:  dataAge,
		UptimeSeconds: uptime.Seconds(),
		Uptime:        h.formatUptimeHuman(uptime),
		Data: map[string]any{
			"api_version": "1.0",
			"hospital":    details["hospital"],
			"items":       details["items"],
			"is_updating": details["is_updating"],
			"next_update": h.healthChecker.CalculateNextUpdate().Format(time.RFC3339),
		},
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
