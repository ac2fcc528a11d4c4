package uds

import (
	"testing"
	"time"

	"zoeuds/internal/adapter"
	"zoeuds/internal/field"
	"zoeuds/internal/transport"
)

func newTestClient(t *testing.T, resp transport.Responder) (*Client, *transport.MockChannel) {
	t.Helper()
	ch := transport.NewMockChannel()
	ch.SetResponder(resp)
	tun := adapter.DefaultTunables()
	tun.ELMTimeout = time.Second
	ctrl := adapter.NewController(ch, tun)
	return NewClient(ctrl), ch
}

func TestReadByIDSingleFrame(t *testing.T) {
	c, _ := newTestClient(t, func(line string) string {
		if line == "03222002" {
			return "04 62 20 02 50"
		}
		return "NO DATA"
	})
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	payload, err := c.ReadByID(req)
	if err != nil {
		t.Fatalf("ReadByID: %v", err)
	}
	want := []byte{0x62, 0x20, 0x02, 0x50}
	if len(payload) != len(want) {
		t.Fatalf("payload = %x, want %x", payload, want)
	}
	for i := range want {
		if payload[i] != want[i] {
			t.Errorf("payload[%d] = %#x, want %#x", i, payload[i], want[i])
		}
	}
	if c.LastStatus() != StatusOK {
		t.Errorf("LastStatus = %v, want StatusOK", c.LastStatus())
	}
}

func TestReadByIDMultiFrame(t *testing.T) {
	c, _ := newTestClient(t, func(line string) string {
		if line == "03222006" {
			return "10 07 62 20 06 00 1A\r\n21 85 00"
		}
		return "NO DATA"
	})
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2006, IdentifierLen: 2}
	payload, err := c.ReadByID(req)
	if err != nil {
		t.Fatalf("ReadByID: %v", err)
	}
	want := []byte{0x62, 0x20, 0x06, 0x00, 0x1A, 0x85, 0x00}
	if len(payload) != len(want) {
		t.Fatalf("payload = %x, want %x", payload, want)
	}
	for i := range want {
		if payload[i] != want[i] {
			t.Errorf("payload[%d] = %#x, want %#x", i, payload[i], want[i])
		}
	}
}

func TestReadByIDRetriesOnceAfterFlowControlTimeout(t *testing.T) {
	calls := 0
	c, ch := newTestClient(t, func(line string) string {
		if line != "03222002" {
			return "OK"
		}
		calls++
		if calls == 1 {
			return "10 0A 62 20 02 0F A0 00" // FF only, no CF arrives
		}
		return "10 0A 62 20 02 0F A0 00\r\n21 01 02 03 04" // retry succeeds
	})
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	payload, err := c.ReadByID(req)
	if err != nil {
		t.Fatalf("ReadByID: %v", err)
	}
	want := []byte{0x62, 0x20, 0x02, 0x0F, 0xA0, 0x00, 0x01, 0x02, 0x03, 0x04}
	if len(payload) != len(want) {
		t.Fatalf("payload = %x, want %x", payload, want)
	}
	for i := range want {
		if payload[i] != want[i] {
			t.Errorf("payload[%d] = %#x, want %#x", i, payload[i], want[i])
		}
	}
	if calls != 2 {
		t.Errorf("request sent %d times, want 2 (one retry)", calls)
	}

	sent := ch.Sent()
	foundReassert := false
	for i := 0; i+2 < len(sent); i++ {
		if sent[i] == "ATCFC1" && sent[i+1] == "ATFCSD 300005" && sent[i+2] == "ATAL" {
			foundReassert = true
		}
	}
	if !foundReassert {
		t.Errorf("sent %v, want the ATCFC1/ATFCSD 300005/ATAL reassert sequence between attempts", sent)
	}
}

func TestReadByIDNoRetryWhenFCRetryDisabled(t *testing.T) {
	ch := transport.NewMockChannel()
	calls := 0
	ch.SetResponder(func(line string) string {
		if line != "03222002" {
			return "OK"
		}
		calls++
		return "10 0A 62 20 02 0F A0 00"
	})
	tun := adapter.DefaultTunables()
	tun.ELMTimeout = time.Second
	tun.FCRetryEnabled = false
	ctrl := adapter.NewController(ch, tun)
	c := NewClient(ctrl)

	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	if _, err := c.ReadByID(req); err == nil {
		t.Fatal("expected an error when no consecutive frames arrive and retry is disabled")
	}
	if calls != 1 {
		t.Errorf("request sent %d times, want 1 (no retry)", calls)
	}
}

func TestReadByIDMismatchedDIDIsRejected(t *testing.T) {
	c, _ := newTestClient(t, func(line string) string {
		if line == "03222002" {
			return "04 62 20 06 50" // echoes DID 0x2006 instead of the requested 0x2002
		}
		return "NO DATA"
	})
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	if _, err := c.ReadByID(req); err == nil {
		t.Fatal("expected an error when the echoed DID doesn't match the request")
	}
	if c.LastStatus() != StatusIncomplete {
		t.Errorf("LastStatus = %v, want StatusIncomplete", c.LastStatus())
	}
}

func TestReadByIDNegativeResponse(t *testing.T) {
	c, _ := newTestClient(t, func(line string) string {
		return "03 7F 22 31"
	})
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	_, err := c.ReadByID(req)
	if err == nil {
		t.Fatal("expected negative response error")
	}
	nr, ok := err.(*NegativeResponse)
	if !ok {
		t.Fatalf("err = %T, want *NegativeResponse", err)
	}
	if nr.ServiceID != 0x22 || nr.Code != 0x31 {
		t.Errorf("NegativeResponse = %+v, want ServiceID=0x22 Code=0x31", nr)
	}
	if c.LastStatus() != StatusNegativeResponse {
		t.Errorf("LastStatus = %v, want StatusNegativeResponse", c.LastStatus())
	}
}

func TestReadByIDCanErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(line string) string { return "CAN ERROR" })
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	if _, err := c.ReadByID(req); err == nil {
		t.Fatal("expected error for CAN ERROR status")
	}
	if c.LastStatus() != StatusCanError {
		t.Errorf("LastStatus = %v, want StatusCanError", c.LastStatus())
	}
}

func TestReadByLocalIDCachesWithinOneSecond(t *testing.T) {
	calls := 0
	c, ch := newTestClient(t, func(line string) string {
		calls++
		return "03 61 C0 7B"
	})
	req := field.Request{Service: field.ServiceReadByLocalID, Identifier: 0xC0, IdentifierLen: 1}

	if _, err := c.ReadByID(req); err != nil {
		t.Fatalf("ReadByID first call: %v", err)
	}
	if _, err := c.ReadByID(req); err != nil {
		t.Fatalf("ReadByID second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("underlying request sent %d times, want 1 (second should be cached)", calls)
	}
	_ = ch
}

func TestBuildRequestLineTwoByteIdentifier(t *testing.T) {
	req := field.Request{Service: field.ServiceReadByID, Identifier: 0x2002, IdentifierLen: 2}
	if got, want := buildRequestLine(req), "03222002"; got != want {
		t.Errorf("buildRequestLine = %q, want %q", got, want)
	}
}

func TestBuildRequestLineOneByteIdentifier(t *testing.T) {
	req := field.Request{Service: field.ServiceReadByLocalID, Identifier: 0xC0, IdentifierLen: 1}
	if got, want := buildRequestLine(req), "0221C0"; got != want {
		t.Errorf("buildRequestLine = %q, want %q", got, want)
	}
}
