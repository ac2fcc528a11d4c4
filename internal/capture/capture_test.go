package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	vehicleInfo := "Test Vehicle"
	session := NewSession(vehicleInfo)

	if session.VehicleInfo != vehicleInfo {
		t.Errorf("Expected vehicle info %s, got %s", vehicleInfo, session.VehicleInfo)
	}

	if session.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}

	if len(session.Frames) != 0 {
		t.Error("Expected empty frames slice")
	}
}

func TestAddFrame(t *testing.T) {
	session := NewSession("Test Vehicle")
	frame := Frame{
		Timestamp:   time.Now(),
		SID:         "State Of Charge",
		RequestHex:  "03222002",
		ResponseHex: "07622002 0FA0 0000",
		Value:       80.0,
		Status:      "ok",
	}

	session.AddFrame(frame)

	if len(session.Frames) != 1 {
		t.Error("Expected one frame in session")
	}

	if session.Frames[0].SID != frame.SID {
		t.Errorf("Expected frame SID %s, got %s", frame.SID, session.Frames[0].SID)
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "capture_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	session := NewSession("Test Vehicle")
	session.filePath = filepath.Join(tempDir, "test_session.json")

	session.AddFrame(Frame{
		Timestamp: time.Now(),
		SID:       "State Of Charge",
		Value:     80.0,
		Status:    "ok",
	})

	if err := session.Save(); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	if _, err := os.Stat(session.filePath); os.IsNotExist(err) {
		t.Error("Expected session file to exist")
	}

	loaded, err := LoadSession(session.filePath)
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded.VehicleInfo != "Test Vehicle" {
		t.Errorf("VehicleInfo = %q, want %q", loaded.VehicleInfo, "Test Vehicle")
	}
	if len(loaded.Frames) != 1 || loaded.Frames[0].SID != "State Of Charge" {
		t.Errorf("Frames = %+v", loaded.Frames)
	}
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder("Test Vehicle")

	if err := recorder.Start(); err != nil {
		t.Fatalf("Failed to start recorder: %v", err)
	}

	if !recorder.IsRunning() {
		t.Error("Expected recorder to be running")
	}

	frame := Frame{
		Timestamp: time.Now(),
		SID:       "State Of Charge",
		Value:     80.0,
		Status:    "ok",
	}

	if err := recorder.Record(frame); err != nil {
		t.Errorf("Failed to record frame: %v", err)
	}

	if err := recorder.Stop(); err != nil {
		t.Errorf("Failed to stop recorder: %v", err)
	}

	if recorder.IsRunning() {
		t.Error("Expected recorder to be stopped")
	}
}

type countingHandler struct {
	sid   string
	calls int
}

func (h *countingHandler) HandleFrame(frame Frame) error {
	h.calls++
	return nil
}

func (h *countingHandler) SID() string { return h.sid }

func TestRecorderDispatchesToHandlerBySID(t *testing.T) {
	recorder := NewRecorder("Test Vehicle")
	handler := &countingHandler{sid: "State Of Charge"}
	recorder.RegisterHandler(handler)

	if err := recorder.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer recorder.Stop()

	if err := recorder.Record(Frame{SID: "State Of Charge", Status: "ok"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := recorder.Record(Frame{SID: "Odometer", Status: "ok"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if handler.calls != 1 {
		t.Errorf("handler.calls = %d, want 1 (only State Of Charge frames dispatch)", handler.calls)
	}
}
