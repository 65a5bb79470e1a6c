package interfaces

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
)

// MockDataStore implements DataStore interface for testing
type MockDataStore struct {
	hospital    entities.Hospital
	items       []entities.ChargeItem
	itemsMap    map[string]entities.ChargeItem
	report      *DataQualityReport
	lastUpdated time.Time
	updating    bool
}

func (m *MockDataStore) GetItems() []entities.ChargeItem {
	return m.items
}

func (m *MockDataStore) GetItemsMap() map[string]entities.ChargeItem {
	return m.itemsMap
}

func (m *MockDataStore) GetHospital() entities.Hospital {
	return m.hospital
}

func (m *MockDataStore) GetDataQualityReport() *DataQualityReport {
	return m.report
}

func (m *MockDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockDataStore) IsUpdating() bool {
	return m.updating
}

func (m *MockDataStore) GetServerStartTime() time.Time {
	return time.Time{} // Return zero time for mock
}

func (m *MockDataStore) UpdateData(hospital entities.Hospital, items []entities.ChargeItem,
	itemsMap map[string]entities.ChargeItem, report *DataQualityReport) {
	m.hospital = hospital
	m.items = items
	m.itemsMap = itemsMap
	m.report = report
	m.lastUpdated = time.Now()
}

func (m *MockDataStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *MockDataStore) EndUpdate() {
	m.updating = false
}

// MockParser implements Parser interface for testing
type MockParser struct {
	shouldFail bool
}

func (m *MockParser) ParseCharges(ctx context.Context) (entities.Hospital, []entities.ChargeItem, error) {
	if err := ctx.Err(); err != nil {
		return entities.Hospital{}, nil, err
	}
	if m.shouldFail {
		return entities.Hospital{}, nil, &mockError{"parse failed"}
	}

	return entities.Hospital{Name: "General Hospital"}, []entities.ChargeItem{
		{ID: "0000000000000001", Description: "ACETAMINOPHEN TAB 325 MG"},
		{ID: "0000000000000002", Description: "CHEST X-RAY 2 VIEWS"},
	}, nil
}

// MockScheduler implements Scheduler interface for testing
type MockScheduler struct {
	started bool
	stopped bool
}

func (m *MockScheduler) Start() error {
	if m.started {
		return &mockError{"already started"}
	}
	m.started = true
	return nil
}

func (m *MockScheduler) Stop() {
	m.stopped = true
}

// MockHTTPHandler implements HTTPHandler interface for testing
type MockHTTPHandler struct {
	responseCode int
	responseBody string
}

func (m *MockHTTPHandler) respond(w http.ResponseWriter) {
	w.WriteHeader(m.responseCode)
	_, _ = w.Write([]byte(m.responseBody))
}

func (m *MockHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) ServeHospitalV1(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) SearchItemsV1(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) FindItemV1(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) ParseDescriptionV1(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) CreateEstimateV1(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { m.respond(w) }

// MockHealthChecker implements HealthChecker interface for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Now().Add(1 * time.Hour)
}

var mockIDPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// MockDataValidator implements DataValidator interface for testing
type MockDataValidator struct {
	shouldFail bool
}

func (m *MockDataValidator) fail(what string) error {
	if m.shouldFail {
		return fmt.Errorf("%s validation failed", what)
	}
	return nil
}

func (m *MockDataValidator) ValidateItem(item *entities.ChargeItem) error {
	return m.fail("item")
}

func (m *MockDataValidator) CheckDuplicateIDs(items []entities.ChargeItem) error {
	return m.fail("duplicate")
}

func (m *MockDataValidator) ValidateDataIntegrity(items []entities.ChargeItem) error {
	return m.fail("integrity")
}

func (m *MockDataValidator) ReportDataQuality(items []entities.ChargeItem) *DataQualityReport {
	return &DataQualityReport{TotalItems: len(items)}
}

func (m *MockDataValidator) ValidateInput(input string) error {
	return m.fail("input")
}

func (m *MockDataValidator) ValidateDescription(input string) error {
	return m.fail("description")
}

func (m *MockDataValidator) ValidateItemID(input string) (string, error) {
	if err := m.fail("item id"); err != nil {
		return "", err
	}
	if !mockIDPattern.MatchString(input) {
		return "", fmt.Errorf("invalid item id")
	}
	return input, nil
}

// mockError is a simple error type for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

// Test functions demonstrating the benefits of interfaces

func TestDataStoreInterface(t *testing.T) {
	store := &MockDataStore{}

	if !store.BeginUpdate() {
		t.Fatal("First BeginUpdate should succeed")
	}
	if store.BeginUpdate() {
		t.Error("Concurrent BeginUpdate should be refused")
	}

	items := []entities.ChargeItem{{ID: "0000000000000001", Description: "Test"}}
	store.UpdateData(entities.Hospital{Name: "General Hospital"}, items,
		map[string]entities.ChargeItem{items[0].ID: items[0]}, &DataQualityReport{TotalItems: 1})
	store.EndUpdate()

	if len(store.GetItems()) != 1 {
		t.Errorf("Expected 1 item, got %d", len(store.GetItems()))
	}
	if _, ok := store.GetItemsMap()["0000000000000001"]; !ok {
		t.Error("Item should be indexed by ID")
	}
	if store.GetHospital().Name != "General Hospital" {
		t.Errorf("Unexpected hospital %q", store.GetHospital().Name)
	}
	if store.GetDataQualityReport().TotalItems != 1 {
		t.Error("Report should be stored with the data")
	}
	if store.IsUpdating() {
		t.Error("EndUpdate should clear the updating flag")
	}
}

func TestParserInterface(t *testing.T) {
	parser := &MockParser{}
	hospital, items, err := parser.ParseCharges(context.Background())
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if hospital.Name != "General Hospital" {
		t.Errorf("Unexpected hospital %q", hospital.Name)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(items))
	}

	parser = &MockParser{shouldFail: true}
	if _, _, err = parser.ParseCharges(context.Background()); err == nil {
		t.Error("Expected error but got none")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err = (&MockParser{}).ParseCharges(ctx); err == nil {
		t.Error("Expected a cancelled context to stop parsing")
	}
}

func TestSchedulerInterface(t *testing.T) {
	scheduler := &MockScheduler{}

	if err := scheduler.Start(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !scheduler.started {
		t.Error("Scheduler should be started")
	}
	if err := scheduler.Start(); err == nil {
		t.Error("Starting twice should fail")
	}

	scheduler.Stop()
	if !scheduler.stopped {
		t.Error("Scheduler should be stopped")
	}
}

func TestHTTPHandlerInterface(t *testing.T) {
	handler := &MockHTTPHandler{
		responseCode: http.StatusOK,
		responseBody: "test response",
	}

	endpoints := []http.HandlerFunc{
		handler.ServeHTTP,
		handler.ServeHospitalV1,
		handler.SearchItemsV1,
		handler.FindItemV1,
		handler.ParseDescriptionV1,
		handler.CreateEstimateV1,
		handler.HealthCheck,
	}

	for i, endpoint := range endpoints {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		endpoint(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("endpoint %d: expected status %d, got %d", i, http.StatusOK, w.Code)
		}
		if w.Body.String() != "test response" {
			t.Errorf("endpoint %d: expected body 'test response', got '%s'", i, w.Body.String())
		}
	}
}

func TestHealthCheckerInterface(t *testing.T) {
	checker := &MockHealthChecker{
		status:     "healthy",
		details:    map[string]any{"items": 2},
		httpStatus: http.StatusOK,
	}

	status, details, httpStatus := checker.HealthCheck()
	if status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", status)
	}
	if httpStatus != http.StatusOK {
		t.Errorf("Expected HTTP status 200, got %d", httpStatus)
	}
	if details["items"] != 2 {
		t.Errorf("Expected 2 items, got '%v'", details["items"])
	}
	if !checker.CalculateNextUpdate().After(time.Now()) {
		t.Error("Next update should be in the future")
	}
}

func TestDataValidatorInterface(t *testing.T) {
	validator := &MockDataValidator{}

	item := &entities.ChargeItem{ID: "0000000000000001", Description: "Test"}
	if err := validator.ValidateItem(item); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if id, err := validator.ValidateItemID("0123456789abcdef"); err != nil || id != "0123456789abcdef" {
		t.Errorf("Unexpected result %q, %v", id, err)
	}
	if _, err := validator.ValidateItemID("not-an-id"); err == nil {
		t.Error("Expected invalid ID to be rejected")
	}

	validator = &MockDataValidator{shouldFail: true}
	if err := validator.ValidateItem(item); err == nil {
		t.Error("Expected validation error but got none")
	}
	if err := validator.ValidateDescription("TAB 5 MG"); err == nil {
		t.Error("Expected description validation error but got none")
	}
}

// Example of how interfaces enable dependency injection
type Service struct {
	dataStore DataStore
	parser    Parser
	scheduler Scheduler
}

func NewService(dataStore DataStore, parser Parser, scheduler Scheduler) *Service {
	return &Service{
		dataStore: dataStore,
		parser:    parser,
		scheduler: scheduler,
	}
}

// Reload loads the file through the parser into the store
func (s *Service) Reload(ctx context.Context) error {
	hospital, items, err := s.parser.ParseCharges(ctx)
	if err != nil {
		return err
	}
	itemsMap := make(map[string]entities.ChargeItem, len(items))
	for _, item := range items {
		itemsMap[item.ID] = item
	}
	s.dataStore.UpdateData(hospital, items, itemsMap, nil)
	return nil
}

func (s *Service) ItemCount() int {
	return len(s.dataStore.GetItems())
}

func TestServiceWithDependencyInjection(t *testing.T) {
	mockStore := &MockDataStore{}
	service := NewService(mockStore, &MockParser{}, &MockScheduler{})

	if err := service.Reload(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count := service.ItemCount(); count != 2 {
		t.Errorf("Expected 2 items, got %d", count)
	}

	failing := NewService(&MockDataStore{}, &MockParser{shouldFail: true}, &MockScheduler{})
	if err := failing.Reload(context.Background()); err == nil {
		t.Error("Expected reload to fail")
	}
	if failing.ItemCount() != 0 {
		t.Error("A failed reload must leave the store empty")
	}
}

// Compile-time checks to ensure our implementations implement the interfaces
func TestCompileTimeChecks(t *testing.T) {
	var _ DataStore = (*MockDataStore)(nil)
	var _ Parser = (*MockParser)(nil)
	var _ Scheduler = (*MockScheduler)(nil)
	var _ HTTPHandler = (*MockHTTPHandler)(nil)
	var _ HealthChecker = (*MockHealthChecker)(nil)
	var _ DataValidator = (*MockDataValidator)(nil)
}
