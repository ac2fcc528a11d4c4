// Command zoediagd is the daemon: it holds the UDS engine connection,
// polls the field catalog, runs anomaly detection against each vehicle's
// profile, persists readings, and serves live telemetry over a websocket,
// the same shape as the teacher's root main.go daemon but driven by
// internal/engine instead of a direct elmobd+CAN bus connection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rzetterberg/elmobd"

	"zoeuds/internal/capture"
	"zoeuds/internal/config"
	"zoeuds/internal/datastore"
	"zoeuds/internal/engine"
	"zoeuds/internal/obdpids"
	"zoeuds/internal/vehicle"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Telemetry is one broadcast frame: every field the engine could read
// this tick, the secondary Mode 01 PIDs when available, and any alerts
// the tick raised.
type Telemetry struct {
	Timestamp time.Time          `json:"timestamp"`
	Fields    map[string]float64 `json:"fields,omitempty"`
	Basic     *obdpids.Reading   `json:"basic,omitempty"`
	Alerts    []vehicle.Alert    `json:"alerts,omitempty"`
}

var (
	clients    = make(map[*websocket.Conn]bool)
	clientsMux sync.Mutex
)

func wsHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade error: %v", err)
		return
	}

	clientsMux.Lock()
	clients[ws] = true
	clientsMux.Unlock()

	defer func() {
		clientsMux.Lock()
		delete(clients, ws)
		clientsMux.Unlock()
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func broadcastTelemetry(data Telemetry) {
	clientsMux.Lock()
	defer clientsMux.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling telemetry: %v", err)
		return
	}

	for client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Error sending to client: %v", err)
			client.Close()
			delete(clients, client)
		}
	}
}

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "config.yaml", "Path to configuration file")
	flag.Parse()
}

func main() {
	router := mux.NewRouter()
	router.HandleFunc("/ws", wsHandler)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir("static")))

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Printf("Starting web server on http://%s", serverAddr)
		if err := http.ListenAndServe(serverAddr, router); err != nil {
			log.Fatal(err)
		}
	}()

	store, err := datastore.NewStore(&datastore.Config{
		SQLitePath:     cfg.Datastore.SQLite.Path,
		InfluxDBURL:    cfg.Datastore.InfluxDB.URL,
		InfluxDBOrg:    cfg.Datastore.InfluxDB.Org,
		InfluxDBToken:  cfg.Datastore.InfluxDB.Token,
		InfluxDBBucket: cfg.Datastore.InfluxDB.Bucket,
	})
	if err != nil {
		log.Fatalf("Error opening datastore: %v", err)
	}
	defer store.Close()

	eng, err := engine.Connect(engine.Options{
		Transport: cfg.TransportConfig(),
		Tunables:  cfg.AdapterTunables(),
	})
	if err != nil {
		log.Fatalf("Error connecting engine: %v", err)
	}
	defer eng.Close()

	manager := vehicle.NewManager()
	manager.RegisterProfile(cfg.Vehicle.Make, cfg.Vehicle.Model, vehicle.Profile{
		SOCLowPercent:   cfg.Vehicle.DefaultThresholds.SOCLowPct,
		PackVoltageMinV: cfg.Vehicle.DefaultThresholds.PackVoltageMinV,
		BatteryTempMaxC: cfg.Vehicle.DefaultThresholds.BatteryTempMaxC,
	})
	if _, err := manager.RegisterVehicle(cfg.Vehicle.VIN, cfg.Vehicle.Make, cfg.Vehicle.Model, cfg.Vehicle.Year); err != nil {
		log.Fatalf("Error registering vehicle: %v", err)
	}

	// The secondary Mode 01 source is best-effort: elmobd owns its own
	// connection, independent of the UDS engine's transport, and many
	// ELM327 clones exposed over a bare TCP/serial bridge won't answer it.
	var basicPoller *obdpids.Poller
	if cfg.Transport.Type == "serial" {
		if dev, err := elmobd.NewDevice(cfg.Transport.Address, false); err == nil {
			basicPoller = obdpids.NewPoller(dev)
		} else {
			log.Printf("Mode 01 PIDs not available: %v", err)
		}
	}

	var recorder *capture.Recorder
	if cfg.Capture.Enabled {
		recorder = capture.NewRecorder("zoediagd")
		if err := recorder.Start(); err != nil {
			log.Printf("Error starting capture: %v", err)
			recorder = nil
		} else {
			defer recorder.Stop()
		}
	}

	stopPoll := make(chan struct{})
	go pollLoop(cfg, eng, manager, store, basicPoller, recorder, stopPoll)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	close(stopPoll)

	clientsMux.Lock()
	for client := range clients {
		client.Close()
		delete(clients, client)
	}
	clientsMux.Unlock()

	log.Println("Cleanup completed")
}
