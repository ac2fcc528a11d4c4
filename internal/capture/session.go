// Package capture records and replays diagnostic sessions: one JSON file
// per session, one Frame per UDS field read, grounded on the teacher's
// generic CAN/OBD2 capture session (internal/capture/session.go) but
// narrowed to the single transaction shape internal/engine produces.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Frame is one UDS field read: the field read, the wire bytes exchanged,
// the decoded value, and how it came out.
type Frame struct {
	Timestamp   time.Time `json:"timestamp"`
	SID         string    `json:"sid"`                   // field name, e.g. "State Of Charge"
	ECU         string    `json:"ecu"`                   // ECU mnemonic the reading came from
	RequestHex  string    `json:"request_hex"`            // hex line sent to the adapter
	ResponseHex string    `json:"response_hex,omitempty"` // hex line(s) received, empty on timeout
	Value       float64   `json:"value,omitempty"`
	Status      string    `json:"status"` // "ok", "negative", "timeout", "can_error"
}

// Session is one recorded or replayed run: a vehicle identity, the
// ordered field reads taken from it, and free-form metadata (adapter
// firmware version, ECU pair, tunables snapshot).
type Session struct {
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time,omitempty"`
	VehicleInfo string            `json:"vehicle_info"`
	Frames      []Frame           `json:"frames"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	filePath    string
}

// NewSession creates a new capture session for the given vehicle
// identity (typically a VIN or make/model string).
func NewSession(vehicleInfo string) *Session {
	return &Session{
		StartTime:   time.Now(),
		VehicleInfo: vehicleInfo,
		Frames:      make([]Frame, 0),
		Metadata:    make(map[string]string),
	}
}

// AddFrame appends a field read to the session.
func (s *Session) AddFrame(frame Frame) {
	s.Frames = append(s.Frames, frame)
}

// SetMetadata adds or updates a metadata key.
func (s *Session) SetMetadata(key, value string) {
	s.Metadata[key] = value
}

// Save writes the session to disk as indented JSON, defaulting to a
// timestamped filename under captures/ when none was set.
func (s *Session) Save() error {
	if s.filePath == "" {
		timestamp := time.Now().Format("20060102_150405")
		s.filePath = filepath.Join("captures", fmt.Sprintf("session_%s.json", timestamp))
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	s.EndTime = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// LoadSession reads a previously saved session back from disk, for
// replay or post-hoc analysis.
func LoadSession(filePath string) (*Session, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	s.filePath = filePath
	return &s, nil
}
