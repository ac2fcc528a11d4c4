// Command zoediag-analyze loads a recorded capture session and prints
// session, field, battery, trend, and reliability statistics, grounded on
// the teacher's cmd/analyze tool but driven by internal/analysis's
// field-read statistics instead of RPM/speed driving-profile metrics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"zoeuds/internal/analysis"
	"zoeuds/internal/capture"
)

func main() {
	var inputFile string
	var flatBandPct float64

	flag.StringVar(&inputFile, "file", "", "Capture file to analyze")
	flag.Float64Var(&flatBandPct, "flat-band", 0, "SOC-flat band in percent (0 uses the default)")
	flag.Parse()

	if inputFile == "" {
		fmt.Println("Please specify a capture file with -file")
		os.Exit(1)
	}

	session, err := capture.LoadSession(inputFile)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}

	opts := analysis.DefaultOptions()
	if flatBandPct > 0 {
		opts.FlatSOCBandPct = flatBandPct
	}

	result, err := analysis.NewAnalyzer(session, opts).Analyze()
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("\nSession Analysis for %s\n", filepath.Base(inputFile))
	fmt.Printf("=================================\n")
	fmt.Printf("Duration: %s\n", result.SessionInfo.Duration)
	fmt.Printf("Total Frames: %d\n", result.SessionInfo.TotalFrames)
	fmt.Printf("Vehicle: %s\n", result.SessionInfo.VehicleInfo)

	fmt.Printf("\nField Statistics:\n")
	for sid, stats := range result.Fields {
		fmt.Printf("- %s: min=%.2f max=%.2f mean=%.2f samples=%d\n",
			sid, stats.Min, stats.Max, stats.Mean, stats.Samples)
	}

	fmt.Printf("\nBattery:\n")
	fmt.Printf("- SOC: %.1f%% -> %.1f%% (delta %.1f%%)\n",
		result.Battery.SOCStart, result.Battery.SOCEnd, result.Battery.SOCDelta)
	fmt.Printf("- Distance: %.1f km\n", result.Battery.DistanceKM)
	fmt.Printf("- Pack Temp: mean=%.1fC max=%.1fC\n", result.Battery.PackTemp.Mean, result.Battery.PackTemp.Max)

	fmt.Printf("\nTrend Segments (%d):\n", len(result.Trend.Segments))
	for _, seg := range result.Trend.Segments {
		fmt.Printf("- %-12s %s  SOC %.1f%% -> %.1f%%\n", seg.Type, seg.Duration, seg.StartSOC, seg.EndSOC)
	}
	fmt.Printf("Charge time: %.1f%%\n", result.Trend.ChargeTime)

	fmt.Printf("\nReliability:\n")
	fmt.Printf("- Reads: %d  OK: %d  Negative: %d  Timeout: %d  CAN Error: %d\n",
		result.Reliability.TotalReads, result.Reliability.OKCount, result.Reliability.NegativeCount,
		result.Reliability.TimeoutCount, result.Reliability.CANErrorCount)
	fmt.Printf("- Error rate: %.1f%%  Read rate: %.2f/s\n", result.Reliability.ErrorRate, result.Reliability.ReadRate)

	fmt.Printf("\nECU Activity:\n")
	for ecu, count := range result.ECUActivity.ReadCountByECU {
		fmt.Printf("- %s: %d reads\n", ecu, count)
	}
}
