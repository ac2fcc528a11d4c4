// Command zoediag-selftest is a basic smoke test for a dongle/vehicle
// pairing: it runs adapter initialization, then reads odometer (DID
// 0x2006) and State Of Charge (DID 0x2002) and reports pass/fail per
// step, grounded on original_source/PyCanZE/Testing/canze_dongle_selftest.py
// and restructured into the teacher's flag-driven CLI style.
package main

import (
	"flag"
	"fmt"
	"os"

	"zoeuds/internal/engine"
	"zoeuds/internal/transport"
)

var (
	transportType string
	address       string
	baudRate      int
)

func init() {
	flag.StringVar(&transportType, "transport", "tcp", "Transport backend: tcp, serial, or mock")
	flag.StringVar(&address, "address", "192.168.2.21:35000", "host:port for tcp, device path for serial")
	flag.IntVar(&baudRate, "baud", 38400, "Baud rate (serial only)")
	flag.Parse()
}

func step(label string, ok bool) {
	status := "FAIL"
	if ok {
		status = "OK"
	}
	fmt.Printf("%-28s %s\n", label, status)
}

func main() {
	fmt.Println("=== zoediag dongle selftest ===")
	fmt.Println("Make sure the vehicle is awake (Ready or charging) before step 3.")
	fmt.Println()

	fmt.Println("[Step 1-2] Adapter initialization (AT setup, headers)")
	eng, err := engine.Connect(engine.Options{
		Transport: transport.Config{
			Type:     transportType,
			Address:  address,
			BaudRate: baudRate,
		},
	})
	if err != nil {
		step("adapter initialization", false)
		fmt.Printf("\nFAIL — %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()
	step("adapter initialization", true)

	fmt.Println("\n[Step 3] UDS probe (DID 0x2006)")
	odometer, odoErr := eng.ReadField("Odometer")
	step("03222006 -> 622006...", odoErr == nil)
	if odoErr == nil {
		fmt.Printf("%-28s %.1f km\n", "Odometer", odometer)
	} else {
		fmt.Printf("Hint: %v\n", odoErr)
	}

	fmt.Println("\nExtra: State Of Charge (DID 0x2002)")
	soc, socErr := eng.ReadField("State Of Charge")
	step("03222002 (SoC) -> 622002...", socErr == nil)
	if socErr == nil {
		fmt.Printf("%-28s %.2f%%\n", "State Of Charge", soc)
	}

	fmt.Println("\nResult:")
	switch {
	case odoErr == nil && socErr == nil:
		fmt.Println("OK — dongle looks suitable for UDS reads against this vehicle.")
	case odoErr != nil && socErr == nil:
		fmt.Println("SoC read worked but odometer read failed. Retry while the vehicle is Ready or charging.")
	default:
		fmt.Println("FAIL — dongle is likely unsuitable, or the vehicle isn't awake yet.")
		os.Exit(1)
	}
}
