package field

import "fmt"

// Catalog is the read-only, in-memory diagnostic database: ECUs, frames and
// fields, keyed the way the engine needs them at request time. It is safe
// to share a single Catalog across multiple engines (spec §3, Ownership &
// lifecycle).
type Catalog struct {
	ecusByCANID map[uint16]ECU // keyed by both request and response CAN id
	fieldsBySID map[string]Descriptor
	frames      map[uint16]Frame
}

// NewCatalog builds a Catalog from parsed ECU, frame and field rows. It
// does not read CSV itself — that loader lives outside this module's scope
// (spec §1); callers hand it already-parsed rows.
func NewCatalog(ecus []ECU, frames []Frame, fields []Descriptor) (*Catalog, error) {
	c := &Catalog{
		ecusByCANID: make(map[uint16]ECU, len(ecus)*2),
		fieldsBySID: make(map[string]Descriptor, len(fields)),
		frames:      make(map[uint16]Frame, len(frames)),
	}
	for _, e := range ecus {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		c.ecusByCANID[e.RequestCANID] = e
		c.ecusByCANID[e.ResponseCANID] = e
	}
	for _, fr := range frames {
		c.frames[fr.FrameID] = fr
	}
	for _, d := range fields {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		c.fieldsBySID[d.SID] = d
	}
	return c, nil
}

// Field looks up a field descriptor by SID.
func (c *Catalog) Field(sid string) (Descriptor, bool) {
	d, ok := c.fieldsBySID[sid]
	return d, ok
}

// ECUPair resolves the (request, response) CAN id pair that owns frameID,
// following the three-step fallback from spec §4.5 step 2:
//  1. exact match in the ECU map, by CAN id in either direction;
//  2. a known pair whose response id matches frameID;
//  3. the standard UDS addressing heuristic, request = frameID-8.
func (c *Catalog) ECUPair(frameID uint16) (requestID, responseID uint16) {
	fid := frameID & 0x7FF
	if e, ok := c.ecusByCANID[fid]; ok {
		return e.RequestCANID, e.ResponseCANID
	}
	for _, e := range c.ecusByCANID {
		if e.ResponseCANID == fid {
			return e.RequestCANID, e.ResponseCANID
		}
	}
	return (fid - 8) & 0x7FF, fid
}

// ECUByRequestID returns the ECU descriptor addressed by requestID, if known.
func (c *Catalog) ECUByRequestID(requestID uint16) (ECU, bool) {
	e, ok := c.ecusByCANID[requestID&0x7FF]
	return e, ok
}

// FieldNames returns every SID the catalog knows how to read, in no
// particular order, for callers (e.g. the polling daemon) that want to
// sweep the whole catalog rather than name fields individually.
func (c *Catalog) FieldNames() []string {
	names := make([]string, 0, len(c.fieldsBySID))
	for sid := range c.fieldsBySID {
		names = append(names, sid)
	}
	return names
}

// seedECUs covers the Renault ZOE / EV platform ECUs exercised by the
// original CanZE tooling: EVC (engine/vehicle controller) and LBC (battery
// controller), both of which require a diagnostic session before most
// reads succeed.
var seedECUs = []ECU{
	{
		Name:            "EVC",
		Mnemonic:        "EVC",
		RequestCANID:    0x7E4,
		ResponseCANID:   0x7EC,
		Networks:        []string{"DIAG"},
		SessionRequired: true,
	},
	{
		Name:            "LBC",
		Mnemonic:        "LBC",
		RequestCANID:    0x7BB,
		ResponseCANID:   0x7BC,
		Networks:        []string{"DIAG"},
		SessionRequired: true,
	},
}

var seedFrames = []Frame{
	{FrameID: 0x7EC, ECUMnemonic: "EVC"},
	{FrameID: 0x7BC, ECUMnemonic: "LBC"},
}

// seedFields is a small, hand-written stand-in for the CSV-backed field
// database a deployment would normally load. It covers the DIDs the
// original CanZE dongle self-test exercises: State Of Charge (0x2002) and
// odometer (0x2006), both on the EVC.
var seedFields = []Descriptor{
	{
		SID:        "State Of Charge",
		FrameID:    0x7EC,
		StartBit:   24,
		EndBit:     39,
		Resolution: 0.02,
		Offset:     0,
		Decimals:   2,
		Unit:       "%",
		Request:    &Request{Service: ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2},
	},
	{
		SID:        "Odometer",
		FrameID:    0x7EC,
		StartBit:   24,
		EndBit:     47,
		Resolution: 1,
		Offset:     0,
		Decimals:   0,
		Unit:       "km",
		Request:    &Request{Service: ServiceReadByID, Identifier: 0x2006, IdentifierLen: 2},
	},
}

// NewSeedCatalog builds the small built-in Renault ZOE catalog described in
// SPEC_FULL.md's "Seed field catalog" section: enough to run the engine and
// its tests end to end without an external CSV database.
func NewSeedCatalog() (*Catalog, error) {
	c, err := NewCatalog(seedECUs, seedFrames, seedFields)
	if err != nil {
		return nil, fmt.Errorf("field: building seed catalog: %w", err)
	}
	return c, nil
}
