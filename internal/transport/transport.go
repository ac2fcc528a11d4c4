// Package transport provides the dumb, line-oriented byte channel to an
// ELM327-class adapter (spec §4.1). It never interprets content: callers
// send a command line and read back whatever text comes until a prompt
// byte or a timeout.
package transport

import (
	"time"

	"github.com/pkg/errors"
)

// ErrTransport is the sentinel the engine's error taxonomy tests against
// with errors.Cause (spec §7, TransportError).
var ErrTransport = errors.New("transport: underlying channel failed")

// Channel is the capability set every backend (TCP, serial, mock) must
// provide. Spec §9 calls this out explicitly: the engine holds one
// polymorphic transport and never knows which concrete backend it is
// talking to.
type Channel interface {
	// Send appends a trailing CR, writes the line, then blocks for the
	// configured post-send delay.
	Send(line string) error
	// ReadUntilPrompt reads chunks until a '>' byte appears or timeout
	// elapses, returning the accumulated text.
	ReadUntilPrompt(timeout time.Duration) (string, error)
	Close() error
}

func wrapIOErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrTransport, "%s: %v", op, err)
}

// Config selects and parameterizes a Channel backend.
type Config struct {
	Type       string        // "tcp", "serial", or "mock"
	Address    string        // host:port for tcp, device path for serial
	BaudRate   int           // serial only; 0 uses the backend's default
	CmdSleep   time.Duration // post-send delay; 0 uses the backend's default
}

// New builds a Channel from cfg.
func New(cfg Config) (Channel, error) {
	switch cfg.Type {
	case "tcp":
		return NewTCPChannel(cfg.Address, cfg.CmdSleep)
	case "serial":
		return NewSerialChannel(cfg.Address, cfg.BaudRate, cfg.CmdSleep)
	case "mock":
		return NewMockChannel(), nil
	default:
		return nil, errors.Errorf("transport: unsupported type %q", cfg.Type)
	}
}
