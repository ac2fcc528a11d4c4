package engine

import (
	"strings"
	"testing"
	"time"

	"zoeuds/internal/adapter"
	"zoeuds/internal/field"
	"zoeuds/internal/transport"
	"zoeuds/internal/uds"
)

// connectWithMock bypasses transport.New and Connect so the test can script
// the mock channel's responder before running the same initialization
// sequence Connect runs.
func connectWithMock(t *testing.T, resp transport.Responder) (*Engine, *transport.MockChannel) {
	t.Helper()
	ch := transport.NewMockChannel()
	ch.SetResponder(resp)

	catalog, err := field.NewSeedCatalog()
	if err != nil {
		t.Fatalf("NewSeedCatalog: %v", err)
	}

	tun := adapter.DefaultTunables()
	tun.ELMTimeout = time.Second
	ctrl := adapter.NewController(ch, tun)
	if err := ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return &Engine{ch: ch, ctrl: ctrl, client: uds.NewClient(ctrl), catalog: catalog}, ch
}

func TestReadFieldStateOfCharge(t *testing.T) {
	e, ch := connectWithMock(t, func(line string) string {
		if line == "03222002" {
			return "07 62 20 02 0F A0 00 00"
		}
		if strings.HasPrefix(line, "0210") {
			return "50 C0"
		}
		return "OK"
	})
	defer e.Close()

	got, err := e.ReadField("State Of Charge")
	if err != nil {
		t.Fatalf("ReadField: %v", err)
	}
	if got != 80.00 {
		t.Errorf("ReadField(SOC) = %v, want 80.00", got)
	}

	sent := ch.Sent()
	foundHeader := false
	for _, s := range sent {
		if s == "ATSH7E4" {
			foundHeader = true
		}
	}
	if !foundHeader {
		t.Errorf("expected ATSH7E4 among sent commands, got %v", sent)
	}
}

func TestReadFieldUnknownSID(t *testing.T) {
	e, _ := connectWithMock(t, func(string) string { return "OK" })
	defer e.Close()

	if _, err := e.ReadField("nonexistent"); err == nil {
		t.Error("expected error for unknown field SID")
	}
}

func TestReadFieldPropagatesNegativeResponse(t *testing.T) {
	e, _ := connectWithMock(t, func(line string) string {
		if line == "03222002" {
			return "03 7F 22 31"
		}
		return "50 C0"
	})
	defer e.Close()

	if _, err := e.ReadField("State Of Charge"); err == nil {
		t.Error("expected error when ECU returns a negative response")
	}
}
