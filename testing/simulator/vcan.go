// vcan.go bridges a Simulator onto a real virtual-CAN interface (vcan0),
// answering UDS requests as raw CAN frames with no ELM327 dongle in
// between. internal/transport has no CAN backend, so the engine does not
// connect to this bridge directly. Grounded on the teacher's root testing/
// simulator.go go-daq/canbus usage (canbus.New/Bind/Frame/Send).
package simulator

import (
	"log"
	"time"

	"github.com/go-daq/canbus"
)

// ServeVCAN binds iface (e.g. "vcan0") and answers single-frame ISO-TP
// UDS requests addressed to any of sim's ECUs. Multi-frame *requests*
// (first frame + consecutive frames from the tester) aren't reassembled
// here — every field this module's seed catalog reads fits a single
// request frame, and CanZE's real traffic is overwhelmingly single-frame
// requests too. Multi-frame *responses* are still split and sent with a
// fixed inter-frame gap instead of waiting for a flow-control frame from
// the tester, a deliberate simplification for a test fixture.
func ServeVCAN(iface string, sim *Simulator) error {
	sock, err := canbus.New()
	if err != nil {
		return err
	}
	defer sock.Close()

	if err := sock.Bind(iface); err != nil {
		return err
	}

	log.Printf("simulator: serving vcan on %s", iface)

	for {
		frame, err := sock.Recv()
		if err != nil {
			return err
		}

		sim.mu.Lock()
		ecu, ok := sim.ecus[uint16(frame.ID)]
		sim.mu.Unlock()
		if !ok {
			continue
		}

		sim.mu.Lock()
		sim.selectedReqID = uint16(frame.ID)
		line := encodeHex(frame.Data)
		reply := sim.handleRequest(line)
		sim.mu.Unlock()

		for _, chunk := range splitReplyFrames(reply) {
			if _, err := sock.Send(canbus.Frame{
				ID:   uint32(ecu.ResponseID),
				Data: chunk,
				Kind: canbus.SFF,
			}); err != nil {
				log.Printf("simulator: vcan send: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
}

// splitReplyFrames turns the "\r"-joined hex lines handleRequest returns
// back into raw 8-byte CAN frame payloads.
func splitReplyFrames(reply string) [][]byte {
	var frames [][]byte
	start := 0
	for i := 0; i <= len(reply); i++ {
		if i == len(reply) || reply[i] == '\r' {
			if i > start {
				data := decodeHex(reply[start:i])
				if len(data) > 0 {
					padded := make([]byte, 8)
					copy(padded, data)
					frames = append(frames, padded)
				}
			}
			start = i + 1
		}
	}
	return frames
}
