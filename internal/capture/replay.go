package capture

import (
	"fmt"
	"log"
	"time"
)

// Replayer walks a loaded Session's frames back out at a configurable
// speed, grounded on the teacher's capture/replay.go pacing loop but
// timed from time.Time timestamps instead of raw int64 nanoseconds.
type Replayer struct {
	Session      *Session
	Speed        float64 // replay speed multiplier (1.0 = real-time)
	CurrentFrame int
}

// ReplayHandler receives each frame as it is replayed.
type ReplayHandler func(frame Frame)

// NewReplayer creates a Replayer over session at real-time speed.
func NewReplayer(session *Session) *Replayer {
	return &Replayer{
		Session: session,
		Speed:   1.0,
	}
}

// Play walks every frame in order, sleeping between frames to reproduce
// the original inter-frame spacing (scaled by Speed), and calls handler
// for each one.
func (r *Replayer) Play(handler ReplayHandler) error {
	if len(r.Session.Frames) == 0 {
		return fmt.Errorf("no frames to replay")
	}

	startTime := time.Now()
	sessionStart := r.Session.Frames[0].Timestamp

	for i, frame := range r.Session.Frames {
		r.CurrentFrame = i

		targetDelay := frame.Timestamp.Sub(sessionStart)
		actualDelay := time.Since(startTime)
		adjustedDelay := time.Duration(float64(targetDelay) / r.Speed)

		if actualDelay < adjustedDelay {
			time.Sleep(adjustedDelay - actualDelay)
		}

		handler(frame)
	}

	return nil
}

// SetSpeed sets the replay speed multiplier, falling back to real-time on
// a non-positive value.
func (r *Replayer) SetSpeed(speed float64) {
	if speed <= 0 {
		log.Printf("Invalid speed multiplier: %v, using 1.0", speed)
		r.Speed = 1.0
		return
	}
	r.Speed = speed
}

// JumpTo positions the replayer at the first frame at or after t.
func (r *Replayer) JumpTo(t time.Time) error {
	for i, frame := range r.Session.Frames {
		if !frame.Timestamp.Before(t) {
			r.CurrentFrame = i
			return nil
		}
	}
	return fmt.Errorf("timestamp %s not found in session", t)
}

// Progress reports how far through the session the replayer has reached,
// as a fraction in [0, 1].
func (r *Replayer) Progress() float64 {
	if len(r.Session.Frames) == 0 {
		return 0
	}
	return float64(r.CurrentFrame) / float64(len(r.Session.Frames))
}
