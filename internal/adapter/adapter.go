// Package adapter drives an ELM327-class adapter's AT command surface:
// initialization, header/filter selection and diagnostic session handling
// (spec §4.2). It knows nothing about ISO-TP segmentation or UDS service
// semantics — those live in internal/isotp and internal/uds.
package adapter

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"zoeuds/internal/transport"
)

// ErrAdapter is the sentinel wrapped around every adapter-level failure
// (spec §7, AdapterError).
var ErrAdapter = errors.New("adapter: command sequence failed")

// Tunables collects every timing and protocol knob the original CanZE
// poller exposed per-ECU or per-deployment (spec §6). NewController
// replaces the whole struct with DefaultTunables when ELMTimeout is zero;
// other zero fields are used as given.
type Tunables struct {
	ELMTimeout         time.Duration
	CmdSleep           time.Duration
	CAF                int // 0 or 1, ATCAF argument
	FCStminMS          int
	HeaderSettle       time.Duration
	DelayBefore21      time.Duration
	FirstDelayByReqID  map[uint16]time.Duration
	UseMaskFilter      bool
	FCRetryEnabled     bool
	ISOTPCollect       time.Duration
	CFReadTimeout      time.Duration
	TesterPresentEvery time.Duration
	ATST               string // hex argument to ATST, "" disables it
}

// DefaultTunables mirrors pycanze.uds.UDSClient's constructor defaults.
func DefaultTunables() Tunables {
	return Tunables{
		ELMTimeout:         12 * time.Second,
		CmdSleep:           120 * time.Millisecond,
		CAF:                0,
		FCStminMS:          0,
		HeaderSettle:       0,
		DelayBefore21:      0,
		FirstDelayByReqID:  map[uint16]time.Duration{},
		UseMaskFilter:      false,
		FCRetryEnabled:     true,
		ISOTPCollect:       2500 * time.Millisecond,
		CFReadTimeout:      1200 * time.Millisecond,
		TesterPresentEvery: 1500 * time.Millisecond,
		ATST:               "",
	}
}

// Controller owns the live Channel and the adapter-side state that must
// persist across reads: which header/filter is currently selected, which
// ECU last had a diagnostic session opened, and when TesterPresent was
// last sent.
type Controller struct {
	ch   transport.Channel
	tun  Tunables
	lastTesterPresent time.Time
	currentReqID      uint16
	haveCurrent       bool
	sessionOpenFor    map[uint16]bool

	// justSwitched is set by SelectFrame and consumed by the first 0x21
	// request that follows, per the delay_before_21_ms one-shot sleep.
	justSwitched bool
}

// NewController wraps ch. A zero Tunables{} is replaced with DefaultTunables.
func NewController(ch transport.Channel, tun Tunables) *Controller {
	if tun.ELMTimeout == 0 {
		tun = DefaultTunables()
	}
	if tun.FirstDelayByReqID == nil {
		tun.FirstDelayByReqID = map[uint16]time.Duration{}
	}
	return &Controller{
		ch:             ch,
		tun:            tun,
		sessionOpenFor: map[uint16]bool{},
	}
}

func (c *Controller) do(cmd string) (string, error) {
	if err := c.ch.Send(cmd); err != nil {
		return "", errors.Wrapf(ErrAdapter, "send %q: %v", cmd, err)
	}
	reply, err := c.ch.ReadUntilPrompt(c.tun.ELMTimeout)
	if err != nil {
		return "", errors.Wrapf(ErrAdapter, "read after %q: %v", cmd, err)
	}
	return reply, nil
}

// Initialize runs the adapter reset and configuration sequence (spec §4.2,
// Initialize), grounded on pycanze.uds.UDSClient.initialize: a cold ATZ,
// echo/spacing/linefeed/headers off, auto-formatting per tunables, flow
// control parameters, and protocol 6 (ISO 15765-4, CAN 11/500).
func (c *Controller) Initialize() error {
	if _, err := c.do("ATZ"); err != nil {
		return err
	}
	time.Sleep(300 * time.Millisecond)

	cmds := []string{
		"ATE0",
		"ATS0",
		"ATH0",
		"ATL0",
		"ATAL",
		"ATCAF" + itoa(c.tun.CAF),
		"ATFCSH77B",
		"ATFCSD 3000" + hexByte(c.tun.FCStminMS),
		"ATFCSM1",
		"ATSP6",
	}
	if c.tun.ATST != "" {
		cmds = append(cmds, "ATST"+c.tun.ATST)
	}
	for _, cmd := range cmds {
		if _, err := c.do(cmd); err != nil {
			return err
		}
	}

	return c.SelectFrame(0x7E4, 0x7EC)
}

// SelectFrame switches the adapter's transmit header and receive
// filter/mask to the given ECU pair. It is idempotent: calling it again
// with the same request id is a no-op, matching pycanze.uds's
// _select_frame guard against redundant AT traffic.
func (c *Controller) SelectFrame(requestID, responseID uint16) error {
	if c.haveCurrent && c.currentReqID == requestID {
		return nil
	}

	if _, err := c.do("ATSH" + hex3(requestID)); err != nil {
		return err
	}
	if _, err := c.do("ATFCSH" + hex3(requestID)); err != nil {
		return err
	}

	if c.tun.UseMaskFilter {
		if _, err := c.do("ATCF " + hex3(responseID)); err != nil {
			return err
		}
		if _, err := c.do("ATCM 7FF"); err != nil {
			return err
		}
	} else {
		if _, err := c.do("ATCRA " + hex3(responseID)); err != nil {
			return err
		}
	}

	c.currentReqID = requestID
	c.haveCurrent = true

	if d, ok := c.tun.FirstDelayByReqID[requestID]; ok {
		time.Sleep(d)
	} else if c.tun.HeaderSettle > 0 {
		time.Sleep(c.tun.HeaderSettle)
	}
	c.justSwitched = true
	return nil
}

// ConsumeDelayBefore21 applies the one-shot delay_before_21_ms sleep ahead
// of the first 0x21 request following a SelectFrame switch, then clears
// the flag so later 0x21 requests on the same ECU pair go unthrottled.
// internal/uds calls this before every 0x21 request; it is a no-op when
// the ECU pair hasn't just changed.
func (c *Controller) ConsumeDelayBefore21() {
	if !c.justSwitched {
		return
	}
	c.justSwitched = false
	if c.tun.DelayBefore21 > 0 {
		time.Sleep(c.tun.DelayBefore21)
	}
}

// ReassertFlowControl resends the flow-control parameters a clone adapter
// may have silently dropped after a First Frame with no Consecutive Frames
// (spec §4.4 step 4): ATCFC1 (auto flow control on), a fixed ATFCSD 300005,
// and ATAL, followed by a fixed 50 ms settle. ATCFC1 is safe to send even
// though initialization never sends it.
func (c *Controller) ReassertFlowControl() error {
	for _, cmd := range []string{"ATCFC1", "ATFCSD 300005", "ATAL"} {
		if _, err := c.do(cmd); err != nil {
			return err
		}
	}
	time.Sleep(50 * time.Millisecond)
	return nil
}

// sessionProbes are the DiagnosticSessionControl sub-functions tried in
// order until one produces a positive response, grounded on
// pycanze.uds._ensure_session.
var sessionProbes = []struct {
	request string
	posAck  string
}{
	{"0210C0", "50C0"},
	{"0210F2", "50F2"},
	{"0210F3", "50F3"},
	{"021081", "5081"},
}

// EnsureSession opens a diagnostic session on requestID if one is not
// already known to be open, or unconditionally when force is true.
func (c *Controller) EnsureSession(requestID uint16, force bool) error {
	if !force && c.sessionOpenFor[requestID] {
		return nil
	}
	for _, probe := range sessionProbes {
		reply, err := c.do(probe.request)
		if err != nil {
			return err
		}
		if strings.Contains(stripSpace(reply), probe.posAck) {
			c.sessionOpenFor[requestID] = true
			return nil
		}
	}
	return errors.Wrapf(ErrAdapter, "no diagnostic session probe acknowledged for %#x", requestID)
}

// TesterPresent sends 0x3E if the configured interval has elapsed since
// the last one, keeping an open session alive without flooding the bus.
func (c *Controller) TesterPresent() error {
	if time.Since(c.lastTesterPresent) < c.tun.TesterPresentEvery {
		return nil
	}
	if _, err := c.do("023E00"); err != nil {
		return err
	}
	c.lastTesterPresent = time.Now()
	return nil
}

// Do sends an arbitrary command line and returns the raw reply, for use by
// internal/uds which owns the ISO-TP/UDS framing this package doesn't.
func (c *Controller) Do(cmd string) (string, error) {
	return c.do(cmd)
}

// Tunables returns the controller's active tunables, read-only.
func (c *Controller) Tunables() Tunables {
	return c.tun
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\r' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func hex3(v uint16) string {
	const digits = "0123456789ABCDEF"
	v &= 0xFFF
	return string([]byte{digits[(v>>8)&0xF], digits[(v>>4)&0xF], digits[v&0xF]})
}

func hexByte(v int) string {
	const digits = "0123456789ABCDEF"
	v &= 0xFF
	return string([]byte{digits[(v>>4)&0xF], digits[v&0xF]})
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	return "1"
}
