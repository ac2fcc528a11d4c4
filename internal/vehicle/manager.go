package vehicle

import (
	"fmt"
	"sync"
	"time"

	"zoeuds/internal/analysis"
)

// Manager holds every registered vehicle and make/model profile in
// memory, guarded by a single mutex the way the teacher's vehicle manager
// did — reads and writes both go through the manager, never the vehicle
// maps directly.
type Manager struct {
	vehicles map[string]*Vehicle
	profiles map[string]*Profile
	mu       sync.RWMutex
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		vehicles: make(map[string]*Vehicle),
		profiles: make(map[string]*Profile),
	}
}

// RegisterVehicle adds a new vehicle to the manager.
func (m *Manager) RegisterVehicle(vin, make, model string, year int) (*Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.vehicles[vin]; exists {
		return nil, fmt.Errorf("vehicle with VIN %s already registered", vin)
	}

	v := &Vehicle{
		VIN:   vin,
		Make:  make,
		Model: model,
		Year:  year,
		Capabilities: Capabilities{
			SupportedFields: map[string]bool{},
		},
		LastUpdated: time.Now(),
	}

	m.vehicles[vin] = v
	return v, nil
}

// GetVehicle retrieves a vehicle by VIN.
func (m *Manager) GetVehicle(vin string) (*Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.vehicles[vin]
	if !exists {
		return nil, fmt.Errorf("vehicle with VIN %s not found", vin)
	}
	return v, nil
}

// UpdateVehicleState replaces a vehicle's field-reading snapshot.
func (m *Manager) UpdateVehicleState(vin string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.vehicles[vin]
	if !exists {
		return fmt.Errorf("vehicle with VIN %s not found", vin)
	}

	v.State = state
	v.LastUpdated = time.Now()
	return nil
}

// RegisterProfile adds or updates a vehicle profile.
func (m *Manager) RegisterProfile(make, model string, profile Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s-%s", make, model)
	m.profiles[key] = &profile
}

// GetProfile retrieves a vehicle profile by make and model.
func (m *Manager) GetProfile(make, model string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := fmt.Sprintf("%s-%s", make, model)
	profile, exists := m.profiles[key]
	if !exists {
		return nil, fmt.Errorf("profile for %s %s not found", make, model)
	}
	return profile, nil
}

// DetectAnomalies checks a vehicle's state against its profile and
// returns the alerts it crosses.
func (m *Manager) DetectAnomalies(vin string) ([]Alert, error) {
	v, err := m.GetVehicle(vin)
	if err != nil {
		return nil, err
	}

	profile, err := m.GetProfile(v.Make, v.Model)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	now := time.Now()

	if v.State.SOCPercent > 0 && v.State.SOCPercent < profile.SOCLowPercent {
		alerts = append(alerts, Alert{
			Type:      "SOC",
			Severity:  "warning",
			Message:   fmt.Sprintf("State of charge low: %.1f%% < %.1f%%", v.State.SOCPercent, profile.SOCLowPercent),
			Timestamp: now,
			Value:     v.State.SOCPercent,
			Threshold: profile.SOCLowPercent,
			Fields:    []string{"State Of Charge"},
		})
	}

	if profile.PackVoltageMinV > 0 && v.State.PackVoltageV > 0 && v.State.PackVoltageV < profile.PackVoltageMinV {
		alerts = append(alerts, Alert{
			Type:      "PackVoltage",
			Severity:  "critical",
			Message:   fmt.Sprintf("Traction battery voltage low: %.1fV < %.1fV", v.State.PackVoltageV, profile.PackVoltageMinV),
			Timestamp: now,
			Value:     v.State.PackVoltageV,
			Threshold: profile.PackVoltageMinV,
			Fields:    []string{"Pack Voltage"},
		})
	}

	if profile.BatteryTempMaxC > 0 && v.State.PackTempC > profile.BatteryTempMaxC {
		alerts = append(alerts, Alert{
			Type:      "PackTemp",
			Severity:  "warning",
			Message:   fmt.Sprintf("Traction battery temperature high: %.1f°C > %.1f°C", v.State.PackTempC, profile.BatteryTempMaxC),
			Timestamp: now,
			Value:     v.State.PackTempC,
			Threshold: profile.BatteryTempMaxC,
			Fields:    []string{"Pack Temperature"},
		})
	}

	if profile.TwelveVVoltageMinV > 0 && v.State.TwelveVVoltageV > 0 && v.State.TwelveVVoltageV < profile.TwelveVVoltageMinV {
		alerts = append(alerts, Alert{
			Type:      "12VBattery",
			Severity:  "warning",
			Message:   fmt.Sprintf("12V auxiliary battery voltage low: %.1fV < %.1fV", v.State.TwelveVVoltageV, profile.TwelveVVoltageMinV),
			Timestamp: now,
			Value:     v.State.TwelveVVoltageV,
			Threshold: profile.TwelveVVoltageMinV,
			Fields:    []string{"12V Battery Voltage"},
		})
	}

	for sid, threshold := range profile.CustomThresholds {
		if value, ok := getValueForField(v.State, sid); ok {
			if value > threshold {
				alerts = append(alerts, Alert{
					Type:      "Custom",
					Severity:  "warning",
					Message:   fmt.Sprintf("Custom threshold exceeded for %s: %.1f > %.1f", sid, value, threshold),
					Timestamp: now,
					Value:     value,
					Threshold: threshold,
					Fields:    []string{sid},
				})
			}
		}
	}

	return alerts, nil
}

// getValueForField maps a field SID to the corresponding State value.
func getValueForField(state State, sid string) (float64, bool) {
	switch sid {
	case "State Of Charge":
		return state.SOCPercent, true
	case "Odometer":
		return state.OdometerKM, true
	case "Pack Voltage":
		return state.PackVoltageV, true
	case "Pack Temperature":
		return state.PackTempC, true
	case "12V Battery Voltage":
		return state.TwelveVVoltageV, true
	default:
		return 0, false
	}
}

// AnalyzePerformance turns one session's field-reading series into a
// PerformanceReport.
func (m *Manager) AnalyzePerformance(analyzer *analysis.Analyzer) (*PerformanceReport, error) {
	results, err := analyzer.Analyze()
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	report := &PerformanceReport{
		Timestamp: time.Now(),
		Duration:  results.SessionInfo.Duration,
		Stats: PerformanceStats{
			StartSOCPercent:  results.Battery.SOCStart,
			EndSOCPercent:    results.Battery.SOCEnd,
			SOCConsumedPct:   results.Battery.SOCStart - results.Battery.SOCEnd,
			DistanceKM:       results.Battery.DistanceKM,
			AveragePackTempC: results.Battery.PackTemp.Mean,
			MaxPackTempC:     results.Battery.PackTemp.Max,
		},
		Alerts: make([]Alert, 0),
	}

	if report.Stats.DistanceKM > 0 && report.Stats.SOCConsumedPct > 0 {
		report.Stats.EfficiencyScore = calculateEfficiencyScore(report.Stats)
	}

	return report, nil
}

// calculateEfficiencyScore scores distance covered per percent of state
// of charge consumed against a 6 km/% reference, clamped to 0-100.
func calculateEfficiencyScore(stats PerformanceStats) float64 {
	const referenceKMPerPercent = 6.0
	kmPerPercent := stats.DistanceKM / stats.SOCConsumedPct
	score := (kmPerPercent / referenceKMPerPercent) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
