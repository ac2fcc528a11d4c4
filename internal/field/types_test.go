package field

import "testing"

func TestBitExtractPartitionReconstructsWholeString(t *testing.T) {
	data := []byte{0x62, 0x20, 0x02, 0x0F, 0xA0, 0x12}
	totalBits := len(data) * 8

	var rebuilt uint64
	bit := 0
	for bit < totalBits {
		width := 1 + (bit % 5) // vary partition width, always ending exactly at totalBits
		if bit+width > totalBits {
			width = totalBits - bit
		}
		raw := BitExtract(data, bit, bit+width-1)
		rebuilt = rebuilt<<uint(width) | raw
		bit += width
	}

	want := uint64(0)
	for _, b := range data {
		want = want<<8 | uint64(b)
	}
	if rebuilt != want {
		t.Errorf("reconstructed %#x, want %#x", rebuilt, want)
	}
}

func TestBitExtractScenarioS1StateOfCharge(t *testing.T) {
	// 7E8 06 62 20 02 0F A0 00 00 -> payload starting at SID 0x62 is
	// 62 20 02 0F A0 00 00.
	payload := []byte{0x62, 0x20, 0x02, 0x0F, 0xA0, 0x00, 0x00}
	d := Descriptor{StartBit: 24, EndBit: 39, Resolution: 0.02, Offset: 0}
	raw := BitExtract(payload, d.StartBit, d.EndBit)
	if raw != 0x0FA0 {
		t.Fatalf("raw = %#x, want 0x0FA0", raw)
	}
	got := d.Decode(raw)
	if got != 80.00 {
		t.Errorf("decoded = %v, want 80.00", got)
	}
}

func TestBitExtractScenarioS2Odometer(t *testing.T) {
	// 62 20 06 00 1A 85
	payload := []byte{0x62, 0x20, 0x06, 0x00, 0x1A, 0x85}
	d := Descriptor{StartBit: 24, EndBit: 47, Resolution: 1, Offset: 0}
	raw := BitExtract(payload, d.StartBit, d.EndBit)
	if raw != 0x001A85 {
		t.Fatalf("raw = %#x, want 0x001A85", raw)
	}
	got := d.Decode(raw)
	if got != 6789 {
		t.Errorf("decoded = %v, want 6789", got)
	}
}

func TestDescriptorValidate(t *testing.T) {
	bad := Descriptor{SID: "x", StartBit: 10, EndBit: 5}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for start_bit > end_bit")
	}

	tooWide := Descriptor{SID: "y", StartBit: 0, EndBit: 70}
	if err := tooWide.Validate(); err == nil {
		t.Error("expected error for range exceeding 64 bits")
	}

	ok := Descriptor{SID: "z", StartBit: 0, EndBit: 63}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestECUValidate(t *testing.T) {
	sameID := ECU{Name: "X", RequestCANID: 0x7E4, ResponseCANID: 0x7E4}
	if err := sameID.Validate(); err == nil {
		t.Error("expected error when request and response ids are equal")
	}

	tooWide := ECU{Name: "X", RequestCANID: 0x800, ResponseCANID: 0x7EC}
	if err := tooWide.Validate(); err == nil {
		t.Error("expected error for CAN id exceeding 11 bits")
	}

	ok := ECU{Name: "X", RequestCANID: 0x7E4, ResponseCANID: 0x7EC}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCatalogECUPairResolution(t *testing.T) {
	c, err := NewSeedCatalog()
	if err != nil {
		t.Fatalf("NewSeedCatalog: %v", err)
	}

	// Exact match via response id.
	req, resp := c.ECUPair(0x7EC)
	if req != 0x7E4 || resp != 0x7EC {
		t.Errorf("ECUPair(0x7EC) = (%#x, %#x), want (0x7E4, 0x7EC)", req, resp)
	}

	// Exact match via request id.
	req, resp = c.ECUPair(0x7E4)
	if req != 0x7E4 || resp != 0x7EC {
		t.Errorf("ECUPair(0x7E4) = (%#x, %#x), want (0x7E4, 0x7EC)", req, resp)
	}

	// Unknown frame id falls back to the req=resp-8 heuristic.
	req, resp = c.ECUPair(0x733)
	if req != 0x733-8 || resp != 0x733 {
		t.Errorf("ECUPair(0x733) = (%#x, %#x), want heuristic fallback", req, resp)
	}
}

func TestCatalogFieldLookup(t *testing.T) {
	c, err := NewSeedCatalog()
	if err != nil {
		t.Fatalf("NewSeedCatalog: %v", err)
	}
	if _, ok := c.Field("State Of Charge"); !ok {
		t.Error("expected seed catalog to contain State Of Charge")
	}
	if _, ok := c.Field("nonexistent"); ok {
		t.Error("expected lookup miss for unknown SID")
	}
}
