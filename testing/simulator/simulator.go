// Package simulator emulates an ELM327-class adapter talking to a
// Renault ZOE's UDS-capable ECUs, grounded on the teacher's
// testing/simulator.go (the same periodic-vehicle-state-plus-writer
// shape) but answering the adapter AT command surface
// (internal/adapter) and UDS requests (internal/uds) instead of
// streaming raw Mode 01 OBD2 frames.
package simulator

import (
	"strings"
	"sync"

	"zoeuds/internal/field"
)

// ECU is one simulated ECU: its CAN addressing pair and the field
// values it answers ReadDataByIdentifier/ReadDataByLocalIdentifier
// requests with.
type ECU struct {
	Mnemonic   string
	RequestID  uint16
	ResponseID uint16

	// Responses holds the positive-response payload (including the
	// echoed service id byte, the same convention internal/uds.ReadByID
	// returns) keyed by service and identifier.
	Responses map[field.Service]map[uint16][]byte
}

// SetField stores the positive response payload for service/id on this
// ECU, building the nested map lazily.
func (e *ECU) SetField(service field.Service, id uint16, payload []byte) {
	if e.Responses == nil {
		e.Responses = map[field.Service]map[uint16][]byte{}
	}
	byID, ok := e.Responses[service]
	if !ok {
		byID = map[uint16][]byte{}
		e.Responses[service] = byID
	}
	byID[id] = payload
}

// Simulator holds every simulated ECU and the adapter state a real
// ELM327 would track (selected request header, headers on/off).
type Simulator struct {
	mu sync.Mutex

	ecus          map[uint16]*ECU // keyed by RequestID
	selectedReqID uint16
	headersOn     bool
	echoOn        bool
}

// NewSimulator creates a Simulator over the given ECUs, keyed by their
// RequestID.
func NewSimulator(ecus ...*ECU) *Simulator {
	s := &Simulator{
		ecus:   map[uint16]*ECU{},
		echoOn: true,
	}
	for _, e := range ecus {
		s.ecus[e.RequestID] = e
	}
	return s
}

// Handle processes one line sent by the tester (an AT command or a
// hex UDS request) and returns the adapter's reply, prompt included.
func (s *Simulator) Handle(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "\r>"
	}

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "AT") {
		return s.handleAT(upper) + "\r\r>"
	}

	return s.handleRequest(upper) + "\r\r>"
}

func (s *Simulator) handleAT(cmd string) string {
	switch {
	case cmd == "ATZ":
		s.headersOn = false
		s.echoOn = true
		return "ELM327 v1.5"
	case cmd == "ATE0":
		s.echoOn = false
		return "OK"
	case cmd == "ATE1":
		s.echoOn = true
		return "OK"
	case cmd == "ATH0":
		s.headersOn = false
		return "OK"
	case cmd == "ATH1":
		s.headersOn = true
		return "OK"
	case strings.HasPrefix(cmd, "ATSH"):
		hex := strings.TrimPrefix(cmd, "ATSH")
		if id, ok := parseHexID(hex); ok {
			s.selectedReqID = id
		}
		return "OK"
	default:
		// ATS0, ATL0, ATAL, ATCAF, ATFCSH, ATFCSD, ATFCSM, ATSP6, ATST,
		// ATCRA, ATCF, ATCM all just ack — the simulator tracks only the
		// state that changes which ECU answers a request.
		return "OK"
	}
}

func (s *Simulator) handleRequest(hexLine string) string {
	bytes := decodeHex(hexLine)
	if len(bytes) < 2 {
		return "?"
	}

	n := int(bytes[0] & 0x0F)
	if len(bytes) < 1+n {
		return "?"
	}

	service := field.Service(bytes[1])
	var id uint16
	switch n {
	case 2:
		id = uint16(bytes[2])
	case 3:
		id = uint16(bytes[2])<<8 | uint16(bytes[3])
	default:
		return "?"
	}

	ecu, ok := s.ecus[s.selectedReqID]
	if !ok {
		return "NO DATA"
	}

	byID, ok := ecu.Responses[service]
	if !ok {
		return negativeResponseLine(byte(service), 0x11) // serviceNotSupported
	}
	payload, ok := byID[id]
	if !ok {
		return negativeResponseLine(byte(service), 0x31) // requestOutOfRange
	}

	return framePayload(payload)
}

func negativeResponseLine(service, nrc byte) string {
	return framePayload([]byte{0x7F, service, nrc})
}
