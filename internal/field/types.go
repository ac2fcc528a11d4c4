// Package field holds the diagnostic field database model: ECUs, frames,
// and the fields within them, plus the big-endian bit extraction and affine
// scaling law used to decode a raw UDS response into a physical value.
//
// The CSV loader that materializes this catalog from
// `_Ecus.csv`/`_Frames.csv`/`<ECU>_Fields.csv` is out of scope here; this
// package only models the parsed, in-memory result.
package field

import (
	"fmt"
	"math/big"
)

// Service identifies which UDS read service a field's request uses.
type Service byte

const (
	// ServiceReadByLocalID is UDS service 0x21, ReadDataByLocalIdentifier,
	// addressed with an 8-bit legacy identifier.
	ServiceReadByLocalID Service = 0x21
	// ServiceReadByID is UDS service 0x22, ReadDataByIdentifier, addressed
	// with a 16-bit data identifier.
	ServiceReadByID Service = 0x22
)

// Request describes how to ask an ECU for one field's raw bytes.
type Request struct {
	Service      Service
	Identifier   uint16
	IdentifierLen int // 1 for LID (0x21), 2 for DID (0x22)
}

// ECU describes one electronic control unit's CAN addressing.
type ECU struct {
	Name            string
	Mnemonic        string
	RequestCANID    uint16 // tester -> ECU
	ResponseCANID   uint16 // ECU -> tester
	Networks        []string
	SessionRequired bool
}

// Validate checks the ECU descriptor's invariants (spec §3).
func (e ECU) Validate() error {
	if e.RequestCANID > 0x7FF || e.ResponseCANID > 0x7FF {
		return fmt.Errorf("field: ECU %s: CAN id exceeds 11 bits", e.Name)
	}
	if e.RequestCANID == e.ResponseCANID {
		return fmt.Errorf("field: ECU %s: request and response CAN ids must differ", e.Name)
	}
	return nil
}

// Frame describes one CAN frame id and the ECU that owns it. Timing
// metadata is opaque passthrough for the core.
type Frame struct {
	FrameID      uint16
	ECUMnemonic  string
	IntervalMS   int
}

// Descriptor is one decodable field in the catalog, keyed by a stable SID.
type Descriptor struct {
	SID             string
	FrameID         uint16
	StartBit        int
	EndBit          int
	Resolution      float64
	Offset          float64
	Decimals        int
	Unit            string
	Request         *Request
	ResponseCANID   uint16 // optional override; 0 means "derive from ECU map"
}

// Validate checks the field descriptor's invariants (spec §3).
func (d Descriptor) Validate() error {
	if d.StartBit > d.EndBit {
		return fmt.Errorf("field %s: start_bit %d > end_bit %d", d.SID, d.StartBit, d.EndBit)
	}
	if d.EndBit-d.StartBit+1 > 64 {
		return fmt.Errorf("field %s: bit range exceeds 64 bits", d.SID)
	}
	return nil
}

// BitExtract returns the unsigned integer contained in data[startBit:endBit]
// using big-endian bit numbering: bit 0 is the MSB of data[0]. The caller
// must ensure data has at least endBit+1 bits. The field width itself is
// bounded to 64 bits (Descriptor.Validate enforces this), but data may be
// longer, so the intermediate value is computed with arbitrary precision to
// avoid truncating the shift.
func BitExtract(data []byte, startBit, endBit int) uint64 {
	totalBits := len(data) * 8
	value := new(big.Int).SetBytes(data)
	shift := totalBits - endBit - 1
	value.Rsh(value, uint(shift))
	width := uint(endBit - startBit + 1)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	value.And(value, mask)
	return value.Uint64()
}

// Decode applies the field's affine scaling law to a raw extracted value.
func (d Descriptor) Decode(raw uint64) float64 {
	return d.Offset + d.Resolution*float64(raw)
}
