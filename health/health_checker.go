// Package health provides health checking functionality for the chargemaster API.
package health

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/chargemaster-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker interface
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	updateTimes []time.Duration // offsets from midnight, sorted
}

// NewHealthChecker creates a new health checker with injected dependencies.
// updateTimes uses the scheduler format ("06:00;18:00"); entries that do not
// parse are ignored and an empty list falls back to 06:00 and 18:00.
func NewHealthChecker(dataStore interfaces.DataStore, updateTimes string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		updateTimes: parseUpdateTimes(updateTimes),
	}
}

// HealthCheck returns HTTP-specific health data with stricter thresholds
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	items := h.dataStore.GetItems()
	hospital := h.dataStore.GetHospital()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	// Determine health status and HTTP code using stricter thresholds
	switch {
	case len(items) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	// Build response data (no system metrics, only data-related fields)
	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"items":          len(items),
		"hospital":       hospital.Name,
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return nextUpdate(time.Now(), h.updateTimes)
}

func nextUpdate(now time.Time, offsets []time.Duration) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, offset := range offsets {
		if candidate := midnight.Add(offset); now.Before(candidate) {
			return candidate
		}
	}

	// past the last update of the day
	return midnight.AddDate(0, 0, 1).Add(offsets[0])
}

func parseUpdateTimes(updateTimes string) []time.Duration {
	var offsets []time.Duration

	for _, entry := range strings.Split(updateTimes, ";") {
		hh, mm, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			continue
		}
		offsets = append(offsets, time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute)
	}

	if len(offsets) == 0 {
		return []time.Duration{6 * time.Hour, 18 * time.Hour}
	}

	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}
