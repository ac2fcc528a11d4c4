package datastore

import (
	"fmt"
	"time"

	"zoeuds/internal/vehicle"
)

// Config holds datastore configuration.
type Config struct {
	SQLitePath     string
	InfluxDBURL    string
	InfluxDBOrg    string
	InfluxDBToken  string
	InfluxDBBucket string
}

// CombinedStore implements Store by keeping vehicles/profiles/reports
// in SQLite and streaming field readings into InfluxDB, the same split
// the teacher used for relational vs. time-series data.
type CombinedStore struct {
	sqlite *SQLiteStore
	influx *InfluxDBStore
}

// NewStore creates a combined SQLite+InfluxDB store. If InfluxDBURL is
// empty, readings are kept in SQLite alongside everything else instead
// of requiring a running InfluxDB instance.
func NewStore(config *Config) (Store, error) {
	sqlite, err := NewSQLiteStore(config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	if config.InfluxDBURL == "" {
		return sqlite, nil
	}

	influx, err := NewInfluxDBStore(
		config.InfluxDBURL,
		config.InfluxDBToken,
		config.InfluxDBOrg,
		config.InfluxDBBucket,
	)
	if err != nil {
		sqlite.Close()
		return nil, fmt.Errorf("failed to create InfluxDB store: %w", err)
	}

	return &CombinedStore{
		sqlite: sqlite,
		influx: influx,
	}, nil
}

func (s *CombinedStore) SaveVehicle(v *vehicle.Vehicle) error {
	return s.sqlite.SaveVehicle(v)
}

func (s *CombinedStore) GetVehicle(vin string) (*vehicle.Vehicle, error) {
	return s.sqlite.GetVehicle(vin)
}

func (s *CombinedStore) ListVehicles() ([]*vehicle.Vehicle, error) {
	return s.sqlite.ListVehicles()
}

func (s *CombinedStore) DeleteVehicle(vin string) error {
	return s.sqlite.DeleteVehicle(vin)
}

func (s *CombinedStore) SaveProfile(make, model string, profile *vehicle.Profile) error {
	return s.sqlite.SaveProfile(make, model, profile)
}

func (s *CombinedStore) GetProfile(make, model string) (*vehicle.Profile, error) {
	return s.sqlite.GetProfile(make, model)
}

func (s *CombinedStore) ListProfiles() (map[string]*vehicle.Profile, error) {
	return s.sqlite.ListProfiles()
}

func (s *CombinedStore) SaveReading(vin string, reading *Reading) error {
	return s.influx.SaveReading(vin, reading)
}

func (s *CombinedStore) GetReadings(vin string, start, end time.Time) ([]*Reading, error) {
	return s.influx.GetReadings(vin, start, end)
}

func (s *CombinedStore) GetLatestReading(vin, sid string) (*Reading, error) {
	return s.influx.GetLatestReading(vin, sid)
}

func (s *CombinedStore) SavePerformanceReport(vin string, report *vehicle.PerformanceReport) error {
	return s.sqlite.SavePerformanceReport(vin, report)
}

func (s *CombinedStore) GetPerformanceReports(vin string, start, end time.Time) ([]*vehicle.PerformanceReport, error) {
	return s.sqlite.GetPerformanceReports(vin, start, end)
}

func (s *CombinedStore) SaveServiceRecord(vin string, record *vehicle.ServiceRecord) error {
	return s.sqlite.SaveServiceRecord(vin, record)
}

func (s *CombinedStore) GetServiceHistory(vin string) ([]*vehicle.ServiceRecord, error) {
	return s.sqlite.GetServiceHistory(vin)
}

func (s *CombinedStore) SaveAlert(vin string, alert *vehicle.Alert) error {
	return s.sqlite.SaveAlert(vin, alert)
}

func (s *CombinedStore) GetAlerts(vin string, start, end time.Time) ([]*vehicle.Alert, error) {
	return s.sqlite.GetAlerts(vin, start, end)
}

func (s *CombinedStore) Close() error {
	sqliteErr := s.sqlite.Close()
	influxErr := s.influx.Close()

	if sqliteErr != nil {
		return sqliteErr
	}
	return influxErr
}
