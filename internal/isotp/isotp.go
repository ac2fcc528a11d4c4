// Package isotp reassembles ISO 15765-2 segmented messages (spec §4.3)
// from the raw per-frame byte lines an ELM327-class adapter hands back
// once CAN auto-formatting is disabled. It knows nothing about the
// transport or the UDS service layer above it.
package isotp

import "github.com/pkg/errors"

// ErrISOTP is the sentinel every reassembly failure wraps (spec §7,
// IsotpError).
var ErrISOTP = errors.New("isotp: segmented message reassembly failed")

// ErrNoConsecutiveFrames is wrapped when a First Frame arrived but the
// collected frames contain no Consecutive Frame at all — the specific
// condition internal/uds retries once after reasserting flow control.
var ErrNoConsecutiveFrames = errors.New("isotp: first frame received, no consecutive frames followed")

// FrameType is the ISO-TP protocol control information nibble.
type FrameType int

const (
	Unknown FrameType = iota
	SingleFrame
	FirstFrame
	ConsecutiveFrame
	FlowControlFrame
)

// Classify reads the PCI nibble out of a frame's first byte.
func Classify(first byte) FrameType {
	switch first >> 4 {
	case 0:
		return SingleFrame
	case 1:
		return FirstFrame
	case 2:
		return ConsecutiveFrame
	case 3:
		return FlowControlFrame
	default:
		return Unknown
	}
}

// Reassemble combines the raw per-CAN-frame byte slices collected for one
// request into the single UDS payload they encode, grounded on
// pycanze.uds._read_by_id's FF/CF handling: a lone Single Frame carries its
// own length in the low PCI nibble; a First Frame announces a 12-bit total
// length and is followed by Consecutive Frames whose 4-bit sequence number
// must increment 1..15 then wrap to 0.
//
// frames must already be in arrival order and must contain at least the
// frame that starts the message; Reassemble returns ErrISOTP wrapped with
// a descriptive cause if it runs out of frames before total length is
// reached — the caller (internal/uds) is responsible for collecting more
// frames and retrying up to its own deadline. service is the request
// service id (e.g. 0x22); it identifies the positive-response marker
// (service+0x40) the raw-concatenation fallback (step 5 below) scans for.
func Reassemble(frames [][]byte, service byte) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrISOTP, "no frames to reassemble")
	}
	first := frames[0]
	if len(first) == 0 {
		return nil, errors.Wrap(ErrISOTP, "empty first frame")
	}

	switch Classify(first[0]) {
	case SingleFrame:
		n := int(first[0] & 0x0F)
		if len(first)-1 < n {
			return nil, errors.Wrapf(ErrISOTP, "single frame declares %d bytes, has %d", n, len(first)-1)
		}
		return append([]byte(nil), first[1:1+n]...), nil

	case FirstFrame:
		if len(first) < 2 {
			return nil, errors.Wrap(ErrISOTP, "first frame missing length byte")
		}
		if len(frames) == 1 {
			return nil, errors.Wrap(ErrNoConsecutiveFrames, "first frame received, no consecutive frames arrived")
		}

		total := int(first[0]&0x0F)<<8 | int(first[1])
		out := make([]byte, 0, total)
		out = append(out, first[2:]...)

		expectedSeq := 1
		for _, cf := range frames[1:] {
			if len(cf) == 0 {
				return nil, errors.Wrap(ErrISOTP, "empty consecutive frame")
			}
			if Classify(cf[0]) != ConsecutiveFrame {
				return nil, errors.Wrapf(ErrISOTP, "expected consecutive frame, got PCI nibble %#x", cf[0]>>4)
			}
			seq := int(cf[0] & 0x0F)
			if seq != expectedSeq {
				return nil, errors.Wrapf(ErrISOTP, "consecutive frame sequence mismatch: got %d, want %d", seq, expectedSeq)
			}
			expectedSeq = (expectedSeq + 1) % 16

			remaining := total - len(out)
			take := len(cf) - 1
			if take > remaining {
				take = remaining
			}
			if take > 0 {
				out = append(out, cf[1:1+take]...)
			}
			if len(out) >= total {
				return out[:total], nil
			}
		}
		return nil, errors.Wrapf(ErrISOTP, "incomplete: have %d of %d bytes", len(out), total)

	default:
		return reassembleRawConcat(frames, service)
	}
}

// reassembleRawConcat implements the step 5 fallback for responses that
// carry no SF/FF/CF PCI byte at all — an adapter clone forwarding raw UDS
// payload (e.g. with CAN auto-format left on) rather than ISO-TP framing.
// It concatenates every collected frame and returns starting at the first
// occurrence of the positive response marker (service+0x40) or a negative
// response marker (0x7F), leaving the 0x7F-prefixed bytes for the caller's
// existing negative-response check. It errors if neither marker appears.
func reassembleRawConcat(frames [][]byte, service byte) ([]byte, error) {
	var flat []byte
	for _, f := range frames {
		flat = append(flat, f...)
	}

	posMarker := service + 0x40
	for i, b := range flat {
		if b == posMarker || b == 0x7F {
			return flat[i:], nil
		}
	}
	return nil, errors.Wrapf(ErrISOTP, "no recognizable response marker in %x", flat)
}
