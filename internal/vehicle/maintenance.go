package vehicle

import "time"

// PerformanceReport summarizes one session's field-reading analysis
// (internal/analysis) into driving-relevant statistics.
type PerformanceReport struct {
	Timestamp time.Time
	Duration  time.Duration
	Stats     PerformanceStats
	Alerts    []Alert
}

// PerformanceStats holds the headline numbers from a session: how the
// state of charge moved and how far the vehicle went.
type PerformanceStats struct {
	StartSOCPercent   float64
	EndSOCPercent     float64
	SOCConsumedPct    float64
	DistanceKM        float64
	AveragePackTempC  float64
	MaxPackTempC      float64
	EfficiencyScore   float64
}

// Maintenance tracks a vehicle's service history and mileage-based
// schedule.
type Maintenance struct {
	LastService     time.Time
	NextService     time.Time
	OdometerKM      float64
	ServiceHistory  []ServiceRecord
	PendingServices []string
}

// ServiceRecord is one completed maintenance event.
type ServiceRecord struct {
	Date        time.Time
	Type        string
	Description string
	OdometerKM  float64
	Technician  string
	Parts       []string
	Cost        float64
}

// ServiceSchedule is a make/model's maintenance intervals.
type ServiceSchedule struct {
	Items []ServiceItem
}

// ServiceItem is one scheduled maintenance item.
type ServiceItem struct {
	Name           string
	IntervalKM     float64
	IntervalMonths int
	Description    string
	EstimatedCost  float64
	Priority       string // "required", "recommended", "optional"
}

// DefaultServiceSchedule returns the maintenance intervals that still
// apply to an EV once engine-oil service drops out: coolant loop service
// for the battery's thermal management, brake fluid (regen braking means
// pads last far longer but fluid still ages), cabin filter, tires, and a
// 12V auxiliary battery check.
func DefaultServiceSchedule() ServiceSchedule {
	return ServiceSchedule{
		Items: []ServiceItem{
			{
				Name:           "Battery Coolant Loop Service",
				IntervalKM:     60000,
				IntervalMonths: 36,
				Description:    "Inspect and service the traction battery's thermal management loop",
				EstimatedCost:  120,
				Priority:       "required",
			},
			{
				Name:           "Brake Fluid",
				IntervalKM:     40000,
				IntervalMonths: 24,
				Description:    "Replace brake fluid (regenerative braking reduces pad wear, not fluid aging)",
				EstimatedCost:  60,
				Priority:       "required",
			},
			{
				Name:           "Tire Rotation",
				IntervalKM:     10000,
				IntervalMonths: 6,
				Description:    "Rotate and balance tires",
				EstimatedCost:  30,
				Priority:       "recommended",
			},
			{
				Name:           "Cabin Air Filter",
				IntervalKM:     20000,
				IntervalMonths: 12,
				Description:    "Replace cabin air filter",
				EstimatedCost:  25,
				Priority:       "recommended",
			},
			{
				Name:           "12V Auxiliary Battery Check",
				IntervalKM:     20000,
				IntervalMonths: 12,
				Description:    "Load-test the 12V battery that powers onboard electronics",
				EstimatedCost:  0,
				Priority:       "recommended",
			},
		},
	}
}
