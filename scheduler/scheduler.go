// Package scheduler provides automated data update scheduling and health monitoring
// for the chargemaster API. It reloads the charge file at fixed times of day,
// validates it and swaps it into the data container using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/metrics"
	"github.com/go-co-op/gocron"
)

// DefaultUpdateTimes are the daily reload times used when none are configured
const DefaultUpdateTimes = "06:00;18:00"

// staleAfter is how old data may get before the monitor complains
const staleAfter = 25 * time.Hour

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles data updates and health monitoring using dependency injection
type Scheduler struct {
	dataStore   interfaces.DataStore
	parser      interfaces.Parser
	validator   interfaces.DataValidator
	updateTimes string
	scheduler   *gocron.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// updateTimes is a ';' separated list of HH:MM times.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser,
	validator interfaces.DataValidator, updateTimes string) *Scheduler {
	if updateTimes == "" {
		updateTimes = DefaultUpdateTimes
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		dataStore:   dataStore,
		parser:      parser,
		validator:   validator,
		updateTimes: updateTimes,
		scheduler:   gocron.NewScheduler(time.Local),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start initializes the scheduler with data updates and health monitoring
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.updateTimes).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to update data", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule updates", "error", err, "update_times", s.updateTimes)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduled charge file updates", "update_times", s.updateTimes)

	// Start health monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler, cancels a running download and ends health monitoring
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// updateData performs a complete data update using injected dependencies.
// The current snapshot stays in place when anything fails.
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		metrics.RecordReload(metrics.ReloadSkipped, 0)
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting charge data update at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	hospital, items, err := s.parser.ParseCharges(s.ctx)
	if err != nil {
		metrics.RecordReload(metrics.ReloadFailure, time.Since(start))
		return fmt.Errorf("failed to parse charges: %w", err)
	}

	if err := s.validator.ValidateDataIntegrity(items); err != nil {
		metrics.RecordReload(metrics.ReloadFailure, time.Since(start))
		return fmt.Errorf("charge data rejected: %w", err)
	}

	itemsMap := make(map[string]entities.ChargeItem, len(items))
	for i := range items {
		itemsMap[items[i].ID] = items[i]
	}

	report := s.validator.ReportDataQuality(items)
	logReport(report)

	// Atomic update using injected data store (including report)
	s.dataStore.UpdateData(hospital, items, itemsMap, report)

	elapsed := time.Since(start)
	metrics.RecordReload(metrics.ReloadSuccess, elapsed)
	metrics.RecordSnapshot(len(items), report.UnitPriceKinds)

	logging.Info("Charge data update completed",
		"duration", elapsed.String(),
		"hospital", hospital.Name,
		"item_count", len(items),
	)

	return nil
}

func logReport(report *interfaces.DataQualityReport) {
	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate item IDs detected",
			"total", len(report.DuplicateIDs),
			"id_list", report.DuplicateIDs,
		)
	}

	if report.ItemsWithoutCharges > 0 {
		logging.Warn("Items without a usable price",
			"count", report.ItemsWithoutCharges,
			"sample_ids", report.ItemsWithoutChargesIDs,
		)
	}

	if report.DrugItemsWithoutStrength > 0 {
		logging.Info("Drug items without a parsable strength",
			"count", report.DrugItemsWithoutStrength,
			"drug_items", report.DrugItems,
			"sample_ids", report.DrugItemsWithoutStrengthIDs,
		)
	}

	logging.Debug("Data quality report",
		"total_items", report.TotalItems,
		"items_without_codes", report.ItemsWithoutCodes,
		"items_without_description", report.ItemsWithoutDescription,
		"unit_price_kinds", report.UnitPriceKinds,
	)
}

// startHealthMonitoring monitors the health of the data updates
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > staleAfter {
					logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate)
				}
			}
		}
	}()
}
