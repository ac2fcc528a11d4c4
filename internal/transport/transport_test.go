package transport

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestMockChannelEchoesDefaultOK(t *testing.T) {
	ch := NewMockChannel()
	if err := ch.Send("ATZ"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := ch.ReadUntilPrompt(time.Second)
	if err != nil {
		t.Fatalf("ReadUntilPrompt: %v", err)
	}
	if !strings.Contains(got, "OK") || !strings.HasSuffix(got, ">") {
		t.Errorf("got %q, want OK text terminated by prompt", got)
	}
}

func TestMockChannelScriptedResponder(t *testing.T) {
	ch := NewMockChannel()
	ch.SetResponder(func(line string) string {
		if line == "ATZ" {
			return "ELM327 v1.5"
		}
		return ""
	})
	ch.Send("ATZ")
	got, err := ch.ReadUntilPrompt(time.Second)
	if err != nil {
		t.Fatalf("ReadUntilPrompt: %v", err)
	}
	if !strings.HasPrefix(got, "ELM327 v1.5") {
		t.Errorf("got %q, want ELM327 banner", got)
	}
}

func TestMockChannelRecordsSentLines(t *testing.T) {
	ch := NewMockChannel()
	ch.Send("ATE0")
	ch.ReadUntilPrompt(time.Second)
	ch.Send("ATL0")
	ch.ReadUntilPrompt(time.Second)

	sent := ch.Sent()
	if len(sent) != 2 || sent[0] != "ATE0" || sent[1] != "ATL0" {
		t.Errorf("Sent() = %v, want [ATE0 ATL0]", sent)
	}
}

func TestMockChannelSendAfterCloseFails(t *testing.T) {
	ch := NewMockChannel()
	ch.Close()
	err := ch.Send("ATZ")
	if err == nil {
		t.Fatal("expected error sending on closed channel")
	}
	if errors.Cause(err) != ErrTransport {
		t.Errorf("errors.Cause(err) = %v, want ErrTransport", errors.Cause(err))
	}
}

func TestMockChannelReadWithNothingPendingTimesOut(t *testing.T) {
	ch := NewMockChannel()
	if _, err := ch.ReadUntilPrompt(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error reading with nothing pending")
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New(Config{Type: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unsupported transport type")
	}
}

func TestNewBuildsMockChannel(t *testing.T) {
	ch, err := New(Config{Type: "mock"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := ch.(*MockChannel); !ok {
		t.Errorf("New(mock) returned %T, want *MockChannel", ch)
	}
}
