package transport

import (
	"time"

	"github.com/tarm/serial"
)

const defaultBaudRate = 38400

// SerialChannel talks to a USB/Bluetooth-SPP ELM327 dongle over a local
// serial port, the same backend github.com/tarm/serial gives the teacher's
// simulator writer.
type SerialChannel struct {
	port     *serial.Port
	cmdSleep time.Duration
}

// NewSerialChannel opens device at baud (0 uses defaultBaudRate).
func NewSerialChannel(device string, baud int, cmdSleep time.Duration) (*SerialChannel, error) {
	if baud <= 0 {
		baud = defaultBaudRate
	}
	cfg := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, wrapIOErr("serial open", err)
	}
	if cmdSleep <= 0 {
		cmdSleep = defaultCmdSleep
	}
	return &SerialChannel{port: port, cmdSleep: cmdSleep}, nil
}

func (s *SerialChannel) Send(line string) error {
	if _, err := s.port.Write([]byte(line + "\r")); err != nil {
		return wrapIOErr("serial send", err)
	}
	time.Sleep(s.cmdSleep)
	return nil
}

func (s *SerialChannel) ReadUntilPrompt(timeout time.Duration) (string, error) {
	return readUntilPrompt(s.port, timeout)
}

func (s *SerialChannel) Close() error {
	return wrapIOErr("serial close", s.port.Close())
}
