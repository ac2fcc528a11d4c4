// Package vehicle tracks registered EVs, their diagnostic field readings
// and profile thresholds, and raises alerts when a reading crosses one
// (spec's supplemented vehicle-state tracking, adapted from the teacher's
// ICE-oriented vehicle model to the fields internal/engine actually reads).
package vehicle

import "time"

// Vehicle is a connected EV identified by VIN, with its current field
// state and last-seen timestamp.
type Vehicle struct {
	VIN          string
	Make         string
	Model        string
	Year         int
	Capabilities Capabilities
	State        State
	LastUpdated  time.Time
}

// Capabilities records which fields and ECUs this vehicle has answered
// for. RegisterVehicle starts it empty and nothing in this module fills it
// in as reads succeed; it holds what callers or the datastore put there.
type Capabilities struct {
	SupportedFields map[string]bool // field SID -> has ever answered
	KnownECUs       []string        // ECU mnemonics seen in responses
}

// State is the vehicle's most recently read diagnostic snapshot, one
// field per field SID the daemon folds into it; the seed catalog
// (internal/field) decodes only State Of Charge and Odometer.
type State struct {
	SOCPercent       float64
	OdometerKM       float64
	PackVoltageV     float64
	PackTempC        float64
	TwelveVVoltageV  float64
	LastDiagnostic   time.Time
}

// Profile holds the thresholds a Manager checks a vehicle's State
// against, per make/model.
type Profile struct {
	SOCLowPercent      float64
	PackVoltageMinV    float64
	BatteryTempMaxC    float64
	TwelveVVoltageMinV float64
	CustomThresholds   map[string]float64 // field SID -> max-allowed value
}

// Alert is a vehicle alert condition raised by Manager.DetectAnomalies.
type Alert struct {
	Type      string
	Severity  string // "info", "warning", "critical"
	Message   string
	Timestamp time.Time
	Value     float64
	Threshold float64
	Fields    []string // field SIDs that triggered the alert
}
