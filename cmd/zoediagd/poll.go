package main

import (
	"log"
	"time"

	"zoeuds/internal/capture"
	"zoeuds/internal/config"
	"zoeuds/internal/datastore"
	"zoeuds/internal/engine"
	"zoeuds/internal/obdpids"
	"zoeuds/internal/vehicle"
)

// pollLoop sweeps the engine's whole field catalog once per tick, updates
// the vehicle's last-known state, runs anomaly detection, persists every
// reading, and broadcasts the tick to connected websocket clients. It runs
// until stop is closed.
func pollLoop(
	cfg *config.Config,
	eng *engine.Engine,
	manager *vehicle.Manager,
	store datastore.Store,
	basicPoller *obdpids.Poller,
	recorder *capture.Recorder,
	stop <-chan struct{},
) {
	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()

	fields := eng.Catalog().FieldNames()
	vin := cfg.Vehicle.VIN

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		now := time.Now()
		values := make(map[string]float64, len(fields))
		state := vehicle.State{LastDiagnostic: now}

		for _, sid := range fields {
			value, err := eng.ReadField(sid)
			status := "ok"
			if err != nil {
				status = "can_error"
				log.Printf("zoediagd: read %q: %v", sid, err)
			} else {
				values[sid] = value
				applyFieldToState(&state, sid, value)
			}

			reading := &datastore.Reading{
				Timestamp: now,
				VIN:       vin,
				SID:       sid,
				Value:     value,
				Status:    status,
			}
			if err := store.SaveReading(vin, reading); err != nil {
				log.Printf("zoediagd: save reading %q: %v", sid, err)
			}
			if recorder != nil {
				if err := recorder.Record(capture.Frame{
					Timestamp: now,
					SID:       sid,
					Value:     value,
					Status:    status,
				}); err != nil {
					log.Printf("zoediagd: record %q: %v", sid, err)
				}
			}
		}

		if err := manager.UpdateVehicleState(vin, state); err != nil {
			log.Printf("zoediagd: update state: %v", err)
		}

		var alerts []vehicle.Alert
		if raised, err := manager.DetectAnomalies(vin); err != nil {
			log.Printf("zoediagd: detect anomalies: %v", err)
		} else {
			alerts = raised
			for i := range alerts {
				if err := store.SaveAlert(vin, &alerts[i]); err != nil {
					log.Printf("zoediagd: save alert: %v", err)
				}
			}
		}

		var basic *obdpids.Reading
		if basicPoller != nil {
			sample := basicPoller.Sample()
			basic = &sample
		}

		broadcastTelemetry(Telemetry{
			Timestamp: now,
			Fields:    values,
			Basic:     basic,
			Alerts:    alerts,
		})
	}
}

// applyFieldToState folds one decoded field value into the subset of
// vehicle.State the anomaly and performance analysis care about. Fields
// the catalog doesn't know about are silently ignored.
func applyFieldToState(state *vehicle.State, sid string, value float64) {
	switch sid {
	case "State Of Charge":
		state.SOCPercent = value
	case "Odometer":
		state.OdometerKM = value
	case "Pack Voltage":
		state.PackVoltageV = value
	case "Pack Temperature":
		state.PackTempC = value
	case "12V Battery Voltage":
		state.TwelveVVoltageV = value
	}
}
