package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent test data across all tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateDrugItem creates a pharmacy item with package metadata and a gross charge
func (f *TestDataFactory) CreateDrugItem(id, description, unit, packageType, gross string) entities.ChargeItem {
	item := entities.ChargeItem{
		ID:              id,
		Description:     description,
		CodeInformation: []entities.Code{{Code: "CDM-" + id[len(id)-2:], Type: "CDM"}, {Code: "00378-0018-01", Type: "NDC"}},
		DrugInformation: &entities.DrugInformation{Unit: entities.ParseQuantity(unit), Type: packageType},
		StandardCharges: []entities.StandardCharge{{
			Setting:                "both",
			GrossCharge:            entities.ParseQuantity(gross),
			AdditionalGenericNotes: "Pharmacy",
		}},
	}
	item.SearchKey = chargeparser.SearchKey(&item)
	return item
}

// CreateItem creates a non drug item with both gross and cash prices
func (f *TestDataFactory) CreateItem(id, description, codeType, code, gross, cash string) entities.ChargeItem {
	item := entities.ChargeItem{
		ID:              id,
		Description:     description,
		CodeInformation: []entities.Code{{Code: code, Type: codeType}},
		StandardCharges: []entities.StandardCharge{{
			Setting:        "inpatient",
			GrossCharge:    entities.ParseQuantity(gross),
			DiscountedCash: entities.ParseQuantity(cash),
		}},
	}
	item.SearchKey = chargeparser.SearchKey(&item)
	return item
}

// CreateItems creates the default catalogue used by the handler tests
func (f *TestDataFactory) CreateItems() []entities.ChargeItem {
	return []entities.ChargeItem{
		f.CreateDrugItem("0000000000000001", "METOPROLOL TARTRATE TAB 25 MG PO", "30", "EA", "15"),
		f.CreateDrugItem("0000000000000002", "INSULIN REGULAR 100 UNITS/ML INJ", "10", "ML", "50"),
		f.CreateItem("0000000000000003", "ROOM AND BOARD PRIVATE", "RC", "0110", "1,200.00", "700"),
		f.CreateItem("0000000000000004", "CHEST X-RAY 2 VIEWS", "CPT", "71046", "310", ""),
	}
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDataStoreBuilder provides fluent interface for building mock data stores
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{
		mock: &MockDataStore{
			items:           []entities.ChargeItem{},
			itemsMap:        make(map[string]entities.ChargeItem),
			hospital:        entities.Hospital{Name: "General Hospital", Address: "1 Main St", LastUpdatedOn: "2026-01-01"},
			lastUpdated:     time.Now(),
			serverStartTime: time.Now().Add(-90 * time.Minute),
		},
	}
}

func (b *MockDataStoreBuilder) WithItems(items []entities.ChargeItem) *MockDataStoreBuilder {
	b.mock.items = items
	b.mock.itemsMap = make(map[string]entities.ChargeItem, len(items))
	for _, item := range items {
		b.mock.itemsMap[item.ID] = item
	}
	return b
}

func (b *MockDataStoreBuilder) WithHospital(hospital entities.Hospital) *MockDataStoreBuilder {
	b.mock.hospital = hospital
	return b
}

func (b *MockDataStoreBuilder) WithUpdating(updating bool) *MockDataStoreBuilder {
	b.mock.updating = updating
	return b
}

func (b *MockDataStoreBuilder) WithLastUpdated(lastUpdated time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = lastUpdated
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{
		mock: &MockDataValidator{
			real: validation.NewDataValidator(),
		},
	}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.validateInputError = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// MockHealthCheckerBuilder provides fluent interface for building mock health checkers
type MockHealthCheckerBuilder struct {
	mock *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{
		mock: &MockHealthChecker{
			status:     "healthy",
			httpStatus: http.StatusOK,
			details: map[string]any{
				"last_update":    time.Now().Format(time.RFC3339),
				"data_age_hours": 0.5,
				"items":          4,
				"hospital":       "General Hospital",
				"is_updating":    false,
			},
			nextUpdate: time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC),
		},
	}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.mock.status = status
	b.mock.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.mock
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, body io.Reader, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()

	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d (body: %s)", expectedStatus, resp.Code, resp.Body.String())
	}

	if resp.Body.Len() == 0 {
		h.t.Error("Response body should not be empty")
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts that response contains an error with expected status
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) {
	h.t.Helper()

	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d (body: %s)", expectedStatus, resp.Code, resp.Body.String())
	}

	var errorResp map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &errorResp); err != nil {
		h.t.Errorf("Error response should be valid JSON, got error: %v", err)
	}

	if _, ok := errorResp["message"]; !ok {
		h.t.Error("Error response should have message field")
	}
	if errorResp["code"] != float64(expectedStatus) {
		h.t.Errorf("Error response code should be %d, got %v", expectedStatus, errorResp["code"])
	}
	if errorResp["error"] != http.StatusText(expectedStatus) {
		h.t.Errorf("Error response error should be %q, got %v", http.StatusText(expectedStatus), errorResp["error"])
	}
}

// AssertHealthResponse asserts health check response structure
func (h *HTTPTestHelper) AssertHealthResponse(resp *httptest.ResponseRecorder, expectedCode int, expectedStatus string) {
	h.t.Helper()

	var response map[string]any
	h.AssertJSONResponse(resp, expectedCode, &response)

	if response["status"] != expectedStatus {
		h.t.Errorf("Status mismatch: expected %s, got %v", expectedStatus, response["status"])
	}
	if _, ok := response["data"]; !ok {
		h.t.Error("Response should have data field")
	}
	if _, ok := response["system"]; !ok {
		h.t.Error("Response should have system field")
	}
}

// ============================================================================
// MOCK IMPLEMENTATIONS
// ============================================================================

// MockDataStore implements interfaces.DataStore for testing
type MockDataStore struct {
	items           []entities.ChargeItem
	itemsMap        map[string]entities.ChargeItem
	hospital        entities.Hospital
	lastUpdated     time.Time
	serverStartTime time.Time
	updating        bool

	// Method call tracking
	getItemsCalled    bool
	getItemsMapCalled bool
}

func (m *MockDataStore) GetItems() []entities.ChargeItem {
	m.getItemsCalled = true
	return m.items
}

func (m *MockDataStore) GetItemsMap() map[string]entities.ChargeItem {
	m.getItemsMapCalled = true
	return m.itemsMap
}

func (m *MockDataStore) GetHospital() entities.Hospital {
	return m.hospital
}

func (m *MockDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockDataStore) IsUpdating() bool {
	return m.updating
}

func (m *MockDataStore) GetServerStartTime() time.Time {
	return m.serverStartTime
}

func (m *MockDataStore) GetDataQualityReport() *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

func (m *MockDataStore) UpdateData(hospital entities.Hospital, items []entities.ChargeItem,
	itemsMap map[string]entities.ChargeItem, report *interfaces.DataQualityReport) {
	m.hospital = hospital
	m.items = items
	m.itemsMap = itemsMap
	m.lastUpdated = time.Now()
}

func (m *MockDataStore) BeginUpdate() bool {
	m.updating = true
	return true
}

func (m *MockDataStore) EndUpdate() {
	m.updating = false
}

// MockDataValidator implements interfaces.DataValidator for testing. Input
// validation can be forced to fail; everything else uses the real rules.
type MockDataValidator struct {
	real               interfaces.DataValidator
	validateInputError error

	validateInputCalled bool
	lastValidatedInput  string
}

func (m *MockDataValidator) ValidateItem(item *entities.ChargeItem) error {
	return m.real.ValidateItem(item)
}

func (m *MockDataValidator) CheckDuplicateIDs(items []entities.ChargeItem) error {
	return nil
}

func (m *MockDataValidator) ValidateDataIntegrity(items []entities.ChargeItem) error {
	return nil
}

func (m *MockDataValidator) ReportDataQuality(items []entities.ChargeItem) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

func (m *MockDataValidator) ValidateInput(input string) error {
	m.validateInputCalled = true
	m.lastValidatedInput = input
	if m.validateInputError != nil {
		return m.validateInputError
	}
	return m.real.ValidateInput(input)
}

func (m *MockDataValidator) ValidateDescription(input string) error {
	return m.real.ValidateDescription(input)
}

func (m *MockDataValidator) ValidateItemID(input string) (string, error) {
	return m.real.ValidateItemID(input)
}

// MockHealthChecker implements interfaces.HealthChecker for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
	nextUpdate time.Time
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return m.nextUpdate
}
