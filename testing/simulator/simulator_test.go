package simulator

import (
	"strings"
	"testing"

	"zoeuds/internal/field"
)

func testECU() *ECU {
	ecu := &ECU{Mnemonic: "EVC", RequestID: 0x7E4, ResponseID: 0x7EC}
	ecu.SetField(field.ServiceReadByID, 0x2002, []byte{0x62, 0x20, 0x02, 0x0C, 0x1C})
	return ecu
}

func TestSimulatorATCommandsAck(t *testing.T) {
	sim := NewSimulator(testECU())

	reply := sim.Handle("ATZ\r")
	if !strings.Contains(reply, "ELM327") {
		t.Errorf("ATZ reply = %q, want it to mention ELM327", reply)
	}

	for _, cmd := range []string{"ATE0", "ATH1", "ATSP6", "ATCAF0", "ATFCSH7E4"} {
		reply := sim.Handle(cmd + "\r")
		if !strings.Contains(reply, "OK") {
			t.Errorf("%s reply = %q, want OK", cmd, reply)
		}
	}
}

func TestSimulatorReadsKnownField(t *testing.T) {
	sim := NewSimulator(testECU())

	sim.Handle("ATSH7E4\r")
	reply := sim.Handle("03222002\r")

	if !strings.HasPrefix(reply, "0562200") && !strings.Contains(reply, "622002") {
		t.Fatalf("reply = %q, want it to contain the echoed 622002 header", reply)
	}
}

func TestSimulatorUnknownIdentifierIsNegative(t *testing.T) {
	sim := NewSimulator(testECU())

	sim.Handle("ATSH7E4\r")
	reply := sim.Handle("03229999\r")

	if !strings.Contains(reply, "7F2231") {
		t.Fatalf("reply = %q, want a 0x31 (requestOutOfRange) negative response", reply)
	}
}

func TestSimulatorUnknownServiceIsNegative(t *testing.T) {
	sim := NewSimulator(testECU())

	sim.Handle("ATSH7E4\r")
	reply := sim.Handle("0321F190\r")

	if !strings.Contains(reply, "7F2111") {
		t.Fatalf("reply = %q, want a 0x11 (serviceNotSupported) negative response", reply)
	}
}

func TestSimulatorNoECUSelectedYieldsNoData(t *testing.T) {
	sim := NewSimulator(testECU())

	reply := sim.Handle("03222002\r")
	if !strings.Contains(reply, "NO DATA") {
		t.Fatalf("reply = %q, want NO DATA with no ECU selected", reply)
	}
}
