package analysis

import (
	"math"
	"testing"
	"time"

	"zoeuds/internal/capture"
)

func testSession(now time.Time) *capture.Session {
	return &capture.Session{
		StartTime:   now,
		EndTime:     now.Add(40 * time.Second),
		VehicleInfo: "VF1AG000000000001 ZOE 2019",
		Frames: []capture.Frame{
			{SID: "State Of Charge", ECU: "LBC", Timestamp: now, Value: 80.0, Status: "ok"},
			{SID: "Pack Temperature", ECU: "LBC", Timestamp: now, Value: 22.0, Status: "ok"},
			{SID: "Odometer", ECU: "BCM", Timestamp: now, Value: 15000.0, Status: "ok"},

			// charging: SOC rises
			{SID: "State Of Charge", ECU: "LBC", Timestamp: now.Add(10 * time.Second), Value: 85.0, Status: "ok"},
			{SID: "Pack Temperature", ECU: "LBC", Timestamp: now.Add(10 * time.Second), Value: 23.0, Status: "ok"},

			// a dropped read
			{SID: "State Of Charge", ECU: "LBC", Timestamp: now.Add(20 * time.Second), Status: "timeout"},

			// discharging: SOC falls, distance accrues
			{SID: "State Of Charge", ECU: "LBC", Timestamp: now.Add(30 * time.Second), Value: 78.0, Status: "ok"},
			{SID: "Pack Temperature", ECU: "LBC", Timestamp: now.Add(30 * time.Second), Value: 25.0, Status: "ok"},
			{SID: "Odometer", ECU: "BCM", Timestamp: now.Add(30 * time.Second), Value: 15012.0, Status: "ok"},

			{SID: "State Of Charge", ECU: "LBC", Timestamp: now.Add(40 * time.Second), Value: 76.0, Status: "negative"},
		},
	}
}

func TestAnalyzerSessionInfo(t *testing.T) {
	now := time.Now()
	analyzer := NewAnalyzer(testSession(now), DefaultOptions())

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.SessionInfo.Duration != 40*time.Second {
		t.Errorf("Duration = %v, want 40s", result.SessionInfo.Duration)
	}
	if result.SessionInfo.TotalFrames != 10 {
		t.Errorf("TotalFrames = %d, want 10", result.SessionInfo.TotalFrames)
	}
}

func TestAnalyzerFieldStats(t *testing.T) {
	now := time.Now()
	analyzer := NewAnalyzer(testSession(now), DefaultOptions())

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	soc, ok := result.Fields["State Of Charge"]
	if !ok {
		t.Fatal("expected State Of Charge field stats")
	}
	if soc.Samples != 3 {
		t.Errorf("soc.Samples = %d, want 3 (timeout and negative reads excluded)", soc.Samples)
	}
	if soc.Max != 85.0 {
		t.Errorf("soc.Max = %f, want 85.0", soc.Max)
	}
}

func TestAnalyzerBattery(t *testing.T) {
	now := time.Now()
	analyzer := NewAnalyzer(testSession(now), DefaultOptions())

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Battery.SOCStart != 80.0 {
		t.Errorf("SOCStart = %f, want 80.0", result.Battery.SOCStart)
	}
	if result.Battery.SOCEnd != 78.0 {
		t.Errorf("SOCEnd = %f, want 78.0 (last OK reading, not the negative-response one)", result.Battery.SOCEnd)
	}
	if result.Battery.DistanceKM != 12.0 {
		t.Errorf("DistanceKM = %f, want 12.0", result.Battery.DistanceKM)
	}
	if result.Battery.PackTemp.Max != 25.0 {
		t.Errorf("PackTemp.Max = %f, want 25.0", result.Battery.PackTemp.Max)
	}
}

func TestAnalyzerTrendSegments(t *testing.T) {
	now := time.Now()
	opts := DefaultOptions()
	opts.MinSegmentTime = 1 * time.Second
	analyzer := NewAnalyzer(testSession(now), opts)

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(result.Trend.Segments) == 0 {
		t.Fatal("expected at least one trend segment")
	}
	if result.Trend.Segments[0].Type != "charging" {
		t.Errorf("first segment type = %q, want charging", result.Trend.Segments[0].Type)
	}
}

func TestAnalyzerReliability(t *testing.T) {
	now := time.Now()
	analyzer := NewAnalyzer(testSession(now), DefaultOptions())

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.Reliability.TotalReads != 10 {
		t.Errorf("TotalReads = %d, want 10", result.Reliability.TotalReads)
	}
	if result.Reliability.TimeoutCount != 1 {
		t.Errorf("TimeoutCount = %d, want 1", result.Reliability.TimeoutCount)
	}
	if result.Reliability.NegativeCount != 1 {
		t.Errorf("NegativeCount = %d, want 1", result.Reliability.NegativeCount)
	}
}

func TestAnalyzerECUActivity(t *testing.T) {
	now := time.Now()
	analyzer := NewAnalyzer(testSession(now), DefaultOptions())

	result, err := analyzer.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.ECUActivity.UniqueECUs != 2 {
		t.Errorf("UniqueECUs = %d, want 2", result.ECUActivity.UniqueECUs)
	}
	if result.ECUActivity.ReadCountByECU["LBC"] != 8 {
		t.Errorf("ReadCountByECU[LBC] = %d, want 8", result.ECUActivity.ReadCountByECU["LBC"])
	}
}

func TestCalculateStats(t *testing.T) {
	values := []float64{1.0, 2.0, 3.0, 4.0, 5.0}
	stats := CalculateStats(values)

	expected := Stats{
		Min:    1.0,
		Max:    5.0,
		Mean:   3.0,
		StdDev: 1.5811388300841898,
	}

	if stats.Min != expected.Min {
		t.Errorf("Expected min %f, got %f", expected.Min, stats.Min)
	}
	if stats.Max != expected.Max {
		t.Errorf("Expected max %f, got %f", expected.Max, stats.Max)
	}
	if stats.Mean != expected.Mean {
		t.Errorf("Expected mean %f, got %f", expected.Mean, stats.Mean)
	}
	if math.Abs(stats.StdDev-expected.StdDev) > 0.0001 {
		t.Errorf("Expected stddev %f, got %f", expected.StdDev, stats.StdDev)
	}
}
