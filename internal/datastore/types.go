// Package datastore persists vehicles, profiles, field readings, and
// maintenance history for zoediagd, grounded on the teacher's
// datastore.Store interface and its SQLite/InfluxDB implementations.
package datastore

import (
	"time"

	"zoeuds/internal/vehicle"
)

// Store is the persistence boundary zoediagd talks to: vehicle/profile
// registry, per-field reading history, performance reports, service
// records, and alert history.
type Store interface {
	SaveVehicle(v *vehicle.Vehicle) error
	GetVehicle(vin string) (*vehicle.Vehicle, error)
	ListVehicles() ([]*vehicle.Vehicle, error)
	DeleteVehicle(vin string) error

	SaveProfile(make, model string, profile *vehicle.Profile) error
	GetProfile(make, model string) (*vehicle.Profile, error)
	ListProfiles() (map[string]*vehicle.Profile, error)

	SaveReading(vin string, reading *Reading) error
	GetReadings(vin string, start, end time.Time) ([]*Reading, error)
	GetLatestReading(vin, sid string) (*Reading, error)

	SavePerformanceReport(vin string, report *vehicle.PerformanceReport) error
	GetPerformanceReports(vin string, start, end time.Time) ([]*vehicle.PerformanceReport, error)

	SaveServiceRecord(vin string, record *vehicle.ServiceRecord) error
	GetServiceHistory(vin string) ([]*vehicle.ServiceRecord, error)

	SaveAlert(vin string, alert *vehicle.Alert) error
	GetAlerts(vin string, start, end time.Time) ([]*vehicle.Alert, error)

	Close() error
}

// Reading is one stored UDS field read, the persisted form of
// internal/capture.Frame tagged with the vehicle it came from.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	VIN       string    `json:"vin"`
	SID       string    `json:"sid"`
	ECU       string    `json:"ecu"`
	Value     float64   `json:"value"`
	Status    string    `json:"status"`
}
