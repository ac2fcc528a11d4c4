// Package engine is the public façade over the whole diagnostic stack
// (spec §4.6): one Engine owns a transport Channel, drives the adapter
// through initialization and frame/session selection, and turns a field
// SID into a decoded physical value.
package engine

import (
	"time"

	"github.com/pkg/errors"

	"zoeuds/internal/adapter"
	"zoeuds/internal/field"
	"zoeuds/internal/transport"
	"zoeuds/internal/uds"
)

// ErrEngine is the sentinel wrapped around every façade-level failure
// (spec §7, EngineError), the outermost layer of the error taxonomy that
// also wraps transport.ErrTransport, isotp.ErrISOTP, and uds.ErrUDS
// further down the call chain.
var ErrEngine = errors.New("engine: field read failed")

// Engine is the top-level handle a caller holds: connect once, read many
// fields, close once (spec §3, Ownership & lifecycle).
type Engine struct {
	ch      transport.Channel
	ctrl    *adapter.Controller
	client  *uds.Client
	catalog *field.Catalog
}

// Options configures Connect.
type Options struct {
	Transport transport.Config
	Tunables  adapter.Tunables
	Catalog   *field.Catalog // nil uses field.NewSeedCatalog()
}

// Connect opens the transport, runs adapter initialization, and returns a
// ready Engine. The caller owns the returned Engine and must Close it.
func Connect(opts Options) (*Engine, error) {
	ch, err := transport.New(opts.Transport)
	if err != nil {
		return nil, errors.Wrap(ErrEngine, err.Error())
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog, err = field.NewSeedCatalog()
		if err != nil {
			ch.Close()
			return nil, errors.Wrap(ErrEngine, err.Error())
		}
	}

	ctrl := adapter.NewController(ch, opts.Tunables)
	if err := ctrl.Initialize(); err != nil {
		ch.Close()
		return nil, errors.Wrapf(ErrEngine, "initializing adapter: %v", err)
	}

	return &Engine{
		ch:      ch,
		ctrl:    ctrl,
		client:  uds.NewClient(ctrl),
		catalog: catalog,
	}, nil
}

// Close releases the underlying transport.
func (e *Engine) Close() error {
	return e.ch.Close()
}

// ReadField resolves sid in the catalog, selects the owning ECU's
// request/response frame, ensures a diagnostic session is open when the
// ECU requires one, performs the UDS read, sends a tester-present
// keepalive when its interval has elapsed, extracts the bit window, and
// applies the affine scaling law (spec §4.5, ReadField).
func (e *Engine) ReadField(sid string) (float64, error) {
	d, ok := e.catalog.Field(sid)
	if !ok {
		return 0, errors.Wrapf(ErrEngine, "unknown field %q", sid)
	}
	if d.Request == nil {
		return 0, errors.Wrapf(ErrEngine, "field %q has no request descriptor", sid)
	}

	reqID, respID := e.catalog.ECUPair(d.FrameID)
	if d.ResponseCANID != 0 {
		respID = d.ResponseCANID
	}
	if err := e.ctrl.SelectFrame(reqID, respID); err != nil {
		return 0, errors.Wrapf(ErrEngine, "selecting frame for %q: %v", sid, err)
	}

	if ecu, ok := e.catalog.ECUByRequestID(reqID); ok && ecu.SessionRequired {
		if err := e.ctrl.EnsureSession(reqID, false); err != nil {
			return 0, errors.Wrapf(ErrEngine, "opening session for %q: %v", sid, err)
		}
	}

	payload, err := e.client.ReadByID(*d.Request)
	if err != nil {
		return 0, errors.Wrapf(ErrEngine, "reading %q: %v", sid, err)
	}

	if err := e.ctrl.TesterPresent(); err != nil {
		return 0, errors.Wrapf(ErrEngine, "tester present after %q: %v", sid, err)
	}

	totalBits := len(payload) * 8
	if totalBits <= d.EndBit {
		return 0, errors.Wrapf(ErrEngine, "field %q: response too short (%d bits, need > %d)", sid, totalBits, d.EndBit)
	}

	raw := field.BitExtract(payload, d.StartBit, d.EndBit)
	return d.Decode(raw), nil
}

// Catalog returns the field database this Engine was connected with, for
// callers (e.g. the polling daemon) that need to enumerate every readable
// SID rather than name fields individually.
func (e *Engine) Catalog() *field.Catalog {
	return e.catalog
}

// LastStatus surfaces the UDS client's most recent classification, for
// callers that want to distinguish a sleeping bus from a rejected
// request without inspecting the error chain.
func (e *Engine) LastStatus() uds.LastStatus {
	return e.client.LastStatus()
}

// SelectFrame exposes manual frame selection for callers (e.g. the
// self-test tool) that need to probe an ECU before any field is known.
func (e *Engine) SelectFrame(requestID, responseID uint16) error {
	return e.ctrl.SelectFrame(requestID, responseID)
}

// EnsureSession exposes manual session control for the same reason.
func (e *Engine) EnsureSession(requestID uint16, force bool) error {
	return e.ctrl.EnsureSession(requestID, force)
}

// defaultPollInterval is the minimum spacing the CanZE poller used between
// consecutive field reads on the same ECU to avoid saturating a bus shared
// with the vehicle's own traffic.
const defaultPollInterval = 100 * time.Millisecond
