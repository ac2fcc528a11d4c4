// Command zoediag-simulator runs a fake Renault ZOE dongle for exercising
// the engine without real hardware: it answers the same AT/UDS line
// protocol a real ELM327-class adapter would over TCP or serial, or
// answers raw UDS CAN frames on a virtual CAN interface.
package main

import (
	"encoding/binary"
	"flag"
	"log"

	"zoeuds/internal/field"
	"zoeuds/testing/simulator"
)

func main() {
	var (
		backend  string
		addr     string
		serial   string
		baudRate int
		iface    string
	)

	flag.StringVar(&backend, "backend", "tcp", "Backend to serve: tcp, serial, or vcan")
	flag.StringVar(&addr, "addr", ":35000", "TCP listen address (tcp backend)")
	flag.StringVar(&serial, "serial", "/dev/ttyUSB0", "Serial device path (serial backend)")
	flag.IntVar(&baudRate, "baud", 38400, "Serial baud rate (serial backend)")
	flag.StringVar(&iface, "iface", "vcan0", "CAN interface (vcan backend)")
	flag.Parse()

	sim := seedSimulator()

	var err error
	switch backend {
	case "tcp":
		err = simulator.StartTCPServer(addr, sim)
	case "serial":
		err = simulator.ServeSerial(serial, baudRate, sim)
	case "vcan":
		err = simulator.ServeVCAN(iface, sim)
	default:
		log.Fatalf("unknown backend %q", backend)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// seedSimulator builds a Simulator answering the same EVC/LBC DIDs as
// internal/field.NewSeedCatalog, with illustrative values for a ZOE at
// 62% State Of Charge and 41,234 km on the odometer.
func seedSimulator() *simulator.Simulator {
	evc := &simulator.ECU{Mnemonic: "EVC", RequestID: 0x7E4, ResponseID: 0x7EC}

	soc := make([]byte, 2)
	binary.BigEndian.PutUint16(soc, uint16(62.0/0.02))
	evc.SetField(field.ServiceReadByID, 0x2002, append([]byte{0x62, 0x20, 0x02}, soc...))

	odo := make([]byte, 4)
	binary.BigEndian.PutUint32(odo, 41234)
	evc.SetField(field.ServiceReadByID, 0x2006, append([]byte{0x62, 0x20, 0x06}, odo[1:]...))

	return simulator.NewSimulator(evc)
}
