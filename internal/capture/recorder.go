package capture

import (
	"fmt"
	"sync"
)

// Recorder appends field reads to a running Session and dispatches each
// one to any handler registered for its field name, grounded on the
// teacher's recorder.go start/stop/record lifecycle.
type Recorder struct {
	session  *Session
	running  bool
	mu       sync.Mutex
	handlers map[string]FrameHandler
}

// FrameHandler reacts to recorded frames for one field by name, e.g. to
// feed a live datastore sink or a threshold check as reads arrive.
type FrameHandler interface {
	HandleFrame(frame Frame) error
	SID() string
}

// NewRecorder creates a new recorder for the given vehicle identity.
func NewRecorder(vehicleInfo string) *Recorder {
	return &Recorder{
		session:  NewSession(vehicleInfo),
		handlers: make(map[string]FrameHandler),
	}
}

// RegisterHandler adds a frame handler for one field name.
func (r *Recorder) RegisterHandler(handler FrameHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.SID()] = handler
}

// Start begins the recording session.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("recorder is already running")
	}

	r.running = true
	return nil
}

// Stop ends the recording session and saves it to disk.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return fmt.Errorf("recorder is not running")
	}

	r.running = false
	return r.session.Save()
}

// Record appends a field read to the current session, running its
// handler first if one is registered for that field.
func (r *Recorder) Record(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return fmt.Errorf("recorder is not running")
	}

	if handler, ok := r.handlers[frame.SID]; ok {
		if err := handler.HandleFrame(frame); err != nil {
			return fmt.Errorf("handler error: %w", err)
		}
	}

	r.session.AddFrame(frame)
	return nil
}

// SetMetadata adds metadata to the session.
func (r *Recorder) SetMetadata(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.SetMetadata(key, value)
}

// IsRunning reports whether the recorder is currently running.
func (r *Recorder) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
