// Package uds implements the request/response layer of ISO 14229 that the
// engine actually needs (spec §4.4): ReadDataByIdentifier (service 0x22)
// and ReadDataByLocalIdentifier (service 0x21), negative-response
// detection, and the short-lived result cache pycanze.uds keeps for
// repeated 0x21 polls.
package uds

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"zoeuds/internal/adapter"
	"zoeuds/internal/field"
	"zoeuds/internal/hexline"
	"zoeuds/internal/isotp"
)

// ErrUDS is the sentinel every service-layer failure wraps (spec §7,
// UdsError).
var ErrUDS = errors.New("uds: service request failed")

// NegativeResponse reports a 0x7F reply: serviceID is the service that was
// rejected, code is the NRC byte.
type NegativeResponse struct {
	ServiceID byte
	Code      byte
}

func (n *NegativeResponse) Error() string {
	return fmt.Sprintf("uds: negative response for service %#x, NRC %#x", n.ServiceID, n.Code)
}

// LastStatus is the most recent classification of a request/response
// round trip, surfaced to the engine façade for callers that want to
// distinguish "bus asleep" from "ECU rejected the request".
type LastStatus int

const (
	StatusUnknown LastStatus = iota
	StatusOK
	StatusCanError
	StatusNoData
	StatusElmError
	StatusNegativeResponse
	StatusIncomplete
)

type cacheEntry struct {
	payload []byte
	at      time.Time
}

// Client drives one Controller's adapter to perform UDS reads. It caches
// 0x21 (ReadDataByLocalIdentifier) results for one second, mirroring the
// original poller's reasoning that a local-id frame changes slowly enough
// to tolerate a brief replay.
type Client struct {
	ctrl       *adapter.Controller
	cache      map[field.Service]map[uint16]cacheEntry
	lastStatus LastStatus
}

// NewClient wraps ctrl.
func NewClient(ctrl *adapter.Controller) *Client {
	return &Client{
		ctrl:  ctrl,
		cache: map[field.Service]map[uint16]cacheEntry{},
	}
}

// LastStatus returns the classification of the most recently completed
// request.
func (c *Client) LastStatus() LastStatus {
	return c.lastStatus
}

// ReadByID sends a ReadDataByIdentifier (0x22) or ReadDataByLocalIdentifier
// (0x21) request and returns the positive response payload, including its
// leading echoed service id byte — field bit offsets are defined relative
// to that byte, matching pycanze.uds._read_by_id and the bit numbering
// _extract_bits expects.
func (c *Client) ReadByID(req field.Request) ([]byte, error) {
	return c.readByID(req, true)
}

// readByID is ReadByID's implementation. allowRetry gates the single
// flow-control-reassert retry (spec §4.4 step 4): the retry call passes
// false so a second FF-without-CF can't recurse indefinitely.
func (c *Client) readByID(req field.Request, allowRetry bool) ([]byte, error) {
	if req.Service == field.ServiceReadByLocalID {
		c.ctrl.ConsumeDelayBefore21()
		if cached, ok := c.cacheLookup(req); ok {
			c.lastStatus = StatusOK
			return cached, nil
		}
	}

	cmd := buildRequestLine(req)
	reply, err := c.ctrl.Do(cmd)
	if err != nil {
		c.lastStatus = StatusElmError
		return nil, errors.Wrapf(ErrUDS, "sending %q: %v", cmd, err)
	}

	lines, status := hexline.Lines(reply)
	switch status {
	case hexline.StatusCanError:
		c.lastStatus = StatusCanError
		return nil, errors.Wrap(ErrUDS, "adapter reported CAN ERROR")
	case hexline.StatusNoData:
		c.lastStatus = StatusNoData
		return nil, errors.Wrap(ErrUDS, "adapter reported NO DATA")
	case hexline.StatusElmError:
		c.lastStatus = StatusElmError
		return nil, errors.Wrap(ErrUDS, "adapter reported an error status")
	}
	if len(lines) == 0 {
		c.lastStatus = StatusNoData
		return nil, errors.Wrap(ErrUDS, "empty response")
	}

	payload, err := isotp.Reassemble(lines, byte(req.Service))
	if err != nil {
		if allowRetry && stderrors.Is(err, isotp.ErrNoConsecutiveFrames) && c.ctrl.Tunables().FCRetryEnabled {
			if rErr := c.ctrl.ReassertFlowControl(); rErr != nil {
				c.lastStatus = StatusElmError
				return nil, errors.Wrapf(ErrUDS, "reasserting flow control: %v", rErr)
			}
			return c.readByID(req, false)
		}
		c.lastStatus = StatusIncomplete
		return nil, errors.Wrapf(ErrUDS, "reassembling response: %v", err)
	}

	if len(payload) > 0 && payload[0] == 0x7F {
		c.lastStatus = StatusNegativeResponse
		nr := &NegativeResponse{}
		if len(payload) > 1 {
			nr.ServiceID = payload[1]
		}
		if len(payload) > 2 {
			nr.Code = payload[2]
		}
		return nil, nr
	}

	expectedSID := byte(req.Service) + 0x40
	if len(payload) == 0 || payload[0] != expectedSID {
		c.lastStatus = StatusIncomplete
		return nil, errors.Wrapf(ErrUDS, "unexpected response service id, payload %x", payload)
	}

	if req.Service == field.ServiceReadByID {
		if len(payload) < 3 {
			c.lastStatus = StatusIncomplete
			return nil, errors.Wrapf(ErrUDS, "response too short to carry echoed DID, payload %x", payload)
		}
		gotID := uint16(payload[1])<<8 | uint16(payload[2])
		if gotID != req.Identifier {
			c.lastStatus = StatusIncomplete
			return nil, errors.Wrapf(ErrUDS, "echoed DID %#04x does not match requested %#04x", gotID, req.Identifier)
		}
	}

	c.lastStatus = StatusOK
	out := append([]byte(nil), payload...)
	if req.Service == field.ServiceReadByLocalID {
		c.cacheStore(req, out)
	}
	return out, nil
}

func (c *Client) cacheLookup(req field.Request) ([]byte, bool) {
	byID, ok := c.cache[req.Service]
	if !ok {
		return nil, false
	}
	entry, ok := byID[req.Identifier]
	if !ok || time.Since(entry.at) > time.Second {
		return nil, false
	}
	return entry.payload, true
}

func (c *Client) cacheStore(req field.Request, payload []byte) {
	byID, ok := c.cache[req.Service]
	if !ok {
		byID = map[uint16]cacheEntry{}
		c.cache[req.Service] = byID
	}
	byID[req.Identifier] = cacheEntry{payload: payload, at: time.Now()}
}

// buildRequestLine assembles the UDS request hex line: a length-prefixed
// "03 <service> <id-hi> <id-lo>" for 16-bit identifiers or
// "02 <service> <id>" for 8-bit ones, matching pycanze.uds._read_by_id.
func buildRequestLine(req field.Request) string {
	const digits = "0123456789ABCDEF"
	hx := func(v byte) string { return string([]byte{digits[v>>4], digits[v&0xF]}) }

	if req.IdentifierLen >= 2 {
		hi := byte(req.Identifier >> 8)
		lo := byte(req.Identifier & 0xFF)
		return "03" + hx(byte(req.Service)) + hx(hi) + hx(lo)
	}
	return "02" + hx(byte(req.Service)) + hx(byte(req.Identifier))
}
