package simulator

import (
	"bufio"
	"log"

	"github.com/tarm/serial"
)

// ServeSerial opens portName and serves the given Simulator over it, the
// way a USB/Bluetooth ELM327 dongle exposes its AT/UDS line protocol
// over a serial port.
func ServeSerial(portName string, baud int, sim *Simulator) error {
	config := &serial.Config{
		Name: portName,
		Baud: baud,
	}

	port, err := serial.OpenPort(config)
	if err != nil {
		return err
	}
	defer port.Close()

	log.Printf("Simulator serving on %s", portName)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\r')
		if err != nil {
			return err
		}

		reply := sim.Handle(line)
		if _, err := port.Write([]byte(reply)); err != nil {
			return err
		}
	}
}
