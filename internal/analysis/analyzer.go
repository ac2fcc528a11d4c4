package analysis

import (
	"fmt"
	"time"

	"zoeuds/internal/capture"
)

// Analyzer turns one recorded capture.Session of UDS field reads into
// an Analysis, the same five-pass pipeline shape as the teacher's
// analyzer but reading capture.Frame's SID/Value/Status instead of a
// generic OBD2/CAN Decoded blob.
type Analyzer struct {
	session  *capture.Session
	analysis *Analysis
	options  AnalyzerOptions
}

// AnalyzerOptions configures trend-segment detection on the State Of
// Charge series.
type AnalyzerOptions struct {
	FlatSOCBandPct float64       // SOC delta within this band between samples counts as flat
	MinSegmentTime time.Duration // minimum duration for a trend segment to be kept
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{
		FlatSOCBandPct: 0.2,
		MinSegmentTime: 3 * time.Second,
	}
}

// NewAnalyzer creates an Analyzer over session.
func NewAnalyzer(session *capture.Session, options AnalyzerOptions) *Analyzer {
	return &Analyzer{
		session:  session,
		analysis: &Analysis{},
		options:  options,
	}
}

// Analyze runs every analysis pass and returns the result.
func (a *Analyzer) Analyze() (*Analysis, error) {
	if err := a.analyzeSessionInfo(); err != nil {
		return nil, fmt.Errorf("session info analysis failed: %w", err)
	}

	if err := a.analyzeFields(); err != nil {
		return nil, fmt.Errorf("field analysis failed: %w", err)
	}

	if err := a.analyzeBattery(); err != nil {
		return nil, fmt.Errorf("battery analysis failed: %w", err)
	}

	if err := a.analyzeTrend(); err != nil {
		return nil, fmt.Errorf("trend analysis failed: %w", err)
	}

	if err := a.analyzeReliability(); err != nil {
		return nil, fmt.Errorf("reliability analysis failed: %w", err)
	}

	if err := a.analyzeECUActivity(); err != nil {
		return nil, fmt.Errorf("ECU activity analysis failed: %w", err)
	}

	return a.analysis, nil
}

func (a *Analyzer) analyzeSessionInfo() error {
	a.analysis.SessionInfo.StartTime = a.session.StartTime
	a.analysis.SessionInfo.EndTime = a.session.EndTime
	a.analysis.SessionInfo.Duration = a.session.EndTime.Sub(a.session.StartTime)
	a.analysis.SessionInfo.VehicleInfo = a.session.VehicleInfo
	a.analysis.SessionInfo.TotalFrames = len(a.session.Frames)
	return nil
}

func (a *Analyzer) analyzeFields() error {
	byField := make(map[string][]float64)
	for _, frame := range a.session.Frames {
		if frame.Status != "ok" {
			continue
		}
		byField[frame.SID] = append(byField[frame.SID], frame.Value)
	}

	a.analysis.Fields = make(map[string]Stats, len(byField))
	for sid, values := range byField {
		a.analysis.Fields[sid] = CalculateStats(values)
	}
	return nil
}

// fieldSeries returns the ok frames of field sid in the order they
// were recorded.
func (a *Analyzer) fieldSeries(sid string) []capture.Frame {
	var out []capture.Frame
	for _, frame := range a.session.Frames {
		if frame.Status == "ok" && frame.SID == sid {
			out = append(out, frame)
		}
	}
	return out
}

func (a *Analyzer) analyzeBattery() error {
	soc := a.fieldSeries("State Of Charge")
	if len(soc) > 0 {
		a.analysis.Battery.SOCStart = soc[0].Value
		a.analysis.Battery.SOCEnd = soc[len(soc)-1].Value
		a.analysis.Battery.SOCDelta = a.analysis.Battery.SOCEnd - a.analysis.Battery.SOCStart
	}

	odometer := a.fieldSeries("Odometer")
	if len(odometer) > 1 {
		a.analysis.Battery.DistanceKM = odometer[len(odometer)-1].Value - odometer[0].Value
	}

	var packTemps []float64
	for _, frame := range a.fieldSeries("Pack Temperature") {
		packTemps = append(packTemps, frame.Value)
	}
	a.analysis.Battery.PackTemp = CalculateStats(packTemps)

	return nil
}

func (a *Analyzer) analyzeTrend() error {
	soc := a.fieldSeries("State Of Charge")
	if len(soc) < 2 {
		return nil
	}

	var current *TrendSegment
	flush := func(endTime time.Time) {
		if current == nil {
			return
		}
		current.EndTime = endTime
		current.Duration = current.EndTime.Sub(current.StartTime)
		if current.Duration >= a.options.MinSegmentTime {
			a.analysis.Trend.Segments = append(a.analysis.Trend.Segments, *current)
		}
		current = nil
	}

	for i := 1; i < len(soc); i++ {
		delta := soc[i].Value - soc[i-1].Value
		segType := "flat"
		switch {
		case delta > a.options.FlatSOCBandPct:
			segType = "charging"
		case delta < -a.options.FlatSOCBandPct:
			segType = "discharging"
		}

		if current == nil || current.Type != segType {
			flush(soc[i-1].Timestamp)
			current = &TrendSegment{
				Type:      segType,
				StartTime: soc[i-1].Timestamp,
				StartSOC:  soc[i-1].Value,
			}
		}
		current.EndSOC = soc[i].Value
	}
	flush(soc[len(soc)-1].Timestamp)

	var chargeTime time.Duration
	for _, seg := range a.analysis.Trend.Segments {
		if seg.Type == "charging" {
			chargeTime += seg.Duration
		}
	}
	if total := a.analysis.SessionInfo.Duration; total > 0 {
		a.analysis.Trend.ChargeTime = float64(chargeTime) / float64(total) * 100
	}

	return nil
}

func (a *Analyzer) analyzeReliability() error {
	r := &a.analysis.Reliability
	r.TotalReads = len(a.session.Frames)

	for _, frame := range a.session.Frames {
		switch frame.Status {
		case "ok":
			r.OKCount++
		case "negative":
			r.NegativeCount++
		case "timeout":
			r.TimeoutCount++
		case "can_error":
			r.CANErrorCount++
		}
	}

	if r.TotalReads > 0 {
		r.ErrorRate = float64(r.TotalReads-r.OKCount) / float64(r.TotalReads) * 100
	}

	duration := a.analysis.SessionInfo.Duration.Seconds()
	if duration > 0 {
		r.ReadRate = float64(r.TotalReads) / duration
	}

	return nil
}

func (a *Analyzer) analyzeECUActivity() error {
	counts := make(map[string]int)
	for _, frame := range a.session.Frames {
		if frame.ECU == "" {
			continue
		}
		counts[frame.ECU]++
	}
	a.analysis.ECUActivity.UniqueECUs = len(counts)
	a.analysis.ECUActivity.ReadCountByECU = counts
	return nil
}
