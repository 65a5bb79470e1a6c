// Package interfaces defines core abstractions for the chargemaster API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
)

// DataQualityReport provides a summary of data quality issues found in a
// loaded charge file
type DataQualityReport struct {
	TotalItems                  int
	DuplicateIDs                []string
	ItemsWithoutDescription     int
	ItemsWithoutCharges         int
	ItemsWithoutChargesIDs      []string // first 10
	ItemsWithoutCodes           int
	DrugItems                   int
	DrugItemsWithoutStrength    int
	DrugItemsWithoutStrengthIDs []string // first 10
	UnitPriceKinds              map[string]int
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the hospital header and charge items
// with atomic operations for zero-downtime updates.
type DataStore interface {
	// Data retrieval methods
	GetItems() []entities.ChargeItem
	GetItemsMap() map[string]entities.ChargeItem
	GetHospital() entities.Hospital
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport

	// Data update methods
	UpdateData(hospital entities.Hospital, items []entities.ChargeItem,
		itemsMap map[string]entities.ChargeItem, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for loading a charge file from its source.
// It handles downloading, decoding, and turning the raw file into items with
// stable IDs and search keys.
type Parser interface {
	ParseCharges(ctx context.Context) (entities.Hospital, []entities.ChargeItem, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated data updates and system health checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// ServeHTTP implements the http.Handler interface
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	// V1 handlers
	ServeHospitalV1(w http.ResponseWriter, r *http.Request)
	SearchItemsV1(w http.ResponseWriter, r *http.Request)
	FindItemV1(w http.ResponseWriter, r *http.Request)
	ParseDescriptionV1(w http.ResponseWriter, r *http.Request)
	CreateEstimateV1(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateItem checks if a charge item is usable
	ValidateItem(item *entities.ChargeItem) error

	// CheckDuplicateIDs validates that item IDs are unique
	CheckDuplicateIDs(items []entities.ChargeItem) error

	// ValidateDataIntegrity performs comprehensive data validation
	ValidateDataIntegrity(items []entities.ChargeItem) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(items []entities.ChargeItem) *DataQualityReport

	// ValidateInput validates search queries
	ValidateInput(input string) error

	// ValidateDescription validates free text sent to the parse endpoint
	ValidateDescription(input string) error

	// ValidateItemID validates item IDs and returns the normalized form
	ValidateItemID(input string) (string, error)
}
