// Package obdpids is the secondary, low-precision telemetry source: plain
// Mode 01 PIDs (RPM, speed, coolant temperature) read through
// github.com/rzetterberg/elmobd's built-in OBDCommand set. It runs
// alongside the precise UDS field engine (internal/engine) the same way
// the teacher's poller ran its Mode 01 loop next to its CAN capture —
// elmobd can't express an arbitrary service 0x21/0x22 request, so it only
// ever covers what Mode 01 already standardizes.
package obdpids

import (
	"github.com/rzetterberg/elmobd"
)

// Reading is one sampled basic-PID snapshot. Any field left at its zero
// value means that command failed or the ECU didn't answer in time.
type Reading struct {
	RPM          float64
	SpeedKMH     float64
	CoolantTempC float64
}

// Poller owns an elmobd.Device and samples the three PIDs the teacher's
// telemetry loop already polled.
type Poller struct {
	dev *elmobd.Device
}

// NewPoller wraps an already-initialized elmobd device. Use
// elmobd.NewDevice for a serial backend; the UDS engine's own transport
// (internal/transport) is not reused here because elmobd owns its
// connection lifecycle independently.
func NewPoller(dev *elmobd.Device) *Poller {
	return &Poller{dev: dev}
}

// Sample reads RPM, vehicle speed and coolant temperature. A failure on
// any one command only zeroes that field; it does not abort the others.
func (p *Poller) Sample() Reading {
	var r Reading

	if cmd, err := p.dev.RunOBDCommand(elmobd.NewEngineRPM()); err == nil {
		if rpm, ok := cmd.(*elmobd.EngineRPM); ok {
			r.RPM = float64(rpm.Value)
		}
	}
	if cmd, err := p.dev.RunOBDCommand(elmobd.NewVehicleSpeed()); err == nil {
		if speed, ok := cmd.(*elmobd.VehicleSpeed); ok {
			r.SpeedKMH = float64(speed.Value)
		}
	}
	if cmd, err := p.dev.RunOBDCommand(elmobd.NewCoolantTemperature()); err == nil {
		if temp, ok := cmd.(*elmobd.CoolantTemperature); ok {
			r.CoolantTempC = float64(temp.Value)
		}
	}

	return r
}
