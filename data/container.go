// Package data provides thread-safe data storage and management for the chargemaster API.
// It includes the DataContainer struct with atomic operations for zero-downtime updates
// and thread-safe access methods for the hospital header and its charge items.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	items           atomic.Value // []entities.ChargeItem
	itemsMap        atomic.Value // map[string]entities.ChargeItem
	hospital        atomic.Value // entities.Hospital
	report          atomic.Value // *interfaces.DataQualityReport
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.items.Store(make([]entities.ChargeItem, 0))
	dc.itemsMap.Store(make(map[string]entities.ChargeItem))
	dc.hospital.Store(entities.Hospital{})
	dc.report.Store(&interfaces.DataQualityReport{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// Thread-safe getters with type check

// GetItems returns the charge items in file order
func (dc *DataContainer) GetItems() []entities.ChargeItem {
	if v := dc.items.Load(); v != nil {
		if items, ok := v.([]entities.ChargeItem); ok {
			return items
		}
	}

	logging.Warn("Items list is empty or invalid")
	return []entities.ChargeItem{}
}

// GetItemsMap returns the items keyed by ID for O(1) lookups
func (dc *DataContainer) GetItemsMap() map[string]entities.ChargeItem {
	if v := dc.itemsMap.Load(); v != nil {
		if itemsMap, ok := v.(map[string]entities.ChargeItem); ok {
			return itemsMap
		}
	}

	logging.Warn("ItemsMap is empty or invalid")
	return make(map[string]entities.ChargeItem)
}

// GetHospital returns the header of the loaded charge file
func (dc *DataContainer) GetHospital() entities.Hospital {
	if v := dc.hospital.Load(); v != nil {
		if hospital, ok := v.(entities.Hospital); ok {
			return hospital
		}
	}

	logging.Warn("Hospital header is empty or invalid")
	return entities.Hospital{}
}

// GetDataQualityReport returns the report computed at the last load
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	if v := dc.report.Load(); v != nil {
		if report, ok := v.(*interfaces.DataQualityReport); ok {
			return report
		}
	}
	return &interfaces.DataQualityReport{}
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically updates all data in the container
func (dc *DataContainer) UpdateData(hospital entities.Hospital, items []entities.ChargeItem,
	itemsMap map[string]entities.ChargeItem, report *interfaces.DataQualityReport) {

	if report == nil {
		report = &interfaces.DataQualityReport{}
	}

	// Atomic swap (zero downtime replacement)
	dc.items.Store(items)
	dc.itemsMap.Store(itemsMap)
	dc.hospital.Store(hospital)
	dc.report.Store(report)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
