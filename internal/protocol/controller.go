package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/agentbridge/internal/errors"
)

// Transport is the part of a transport the controller uses.
type Transport interface {
	Records(ctx context.Context) (<-chan map[string]any, <-chan error)
	Send(ctx context.Context, data []byte) error
}

// Handler answers one inbound control request. The returned map becomes the
// success payload; an error becomes an error response carrying its message.
type Handler func(ctx context.Context, req *ControlRequest) (map[string]any, error)

// DeliverFunc receives every record that is not control traffic, in arrival
// order. An error stops the controller and is returned from Run.
type DeliverFunc func(ctx context.Context, record map[string]any) error

// Controller owns the control channel of one session.
//
// Handlers must be registered before Run. Run may be called once.
type Controller struct {
	log       *slog.Logger
	transport Transport

	handlersMu sync.RWMutex
	handlers   map[Kind]Handler

	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	inFlightMu sync.Mutex
	inFlight   map[string]*inFlightOperation

	// base is the parent of every handler context; set by Run.
	baseMu     sync.Mutex
	base       context.Context
	cancelBase context.CancelFunc

	errMu    sync.RWMutex
	fatalErr error

	stopOnce sync.Once
	done     chan struct{}
}

// pendingRequest tracks an outbound request awaiting its response.
type pendingRequest struct {
	subtype  string
	response chan *ControlResponse
}

// inFlightOperation tracks an inbound request being handled.
type inFlightOperation struct {
	kind      Kind
	cancel    context.CancelFunc
	cancelled bool
}

// NewController creates a controller reading from and writing to transport.
func NewController(log *slog.Logger, transport Transport) *Controller {
	return &Controller{
		log:       log.With("component", "protocol"),
		transport: transport,
		handlers:  make(map[Kind]Handler, 3),
		pending:   make(map[string]*pendingRequest, 4),
		inFlight:  make(map[string]*inFlightOperation, 4),
		done:      make(chan struct{}),
	}
}

// RegisterHandler sets the handler for inbound requests of the given kind.
// A later registration for the same kind replaces the earlier one.
func (c *Controller) RegisterHandler(kind Kind, handler Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.log.Debug("Registering control request handler", "subtype", kind)
	c.handlers[kind] = handler
}

// Done is closed once the controller has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the controller, if any.
func (c *Controller) Err() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Run reads inbound records until end of stream, a transport failure, a
// deliver failure, Stop, or cancellation of ctx. It returns nil at end of
// stream and after Stop. The controller is stopped when Run returns.
func (c *Controller) Run(ctx context.Context, deliver DeliverFunc) error {
	c.baseMu.Lock()

	select {
	case <-c.done:
		c.baseMu.Unlock()

		return c.Err()
	default:
	}

	c.base, c.cancelBase = context.WithCancel(ctx)
	c.baseMu.Unlock()

	defer c.Stop()
	defer c.log.Debug("Protocol read loop stopped")

	records, errs := c.transport.Records(ctx)

	c.log.Info("Protocol controller started")

	for {
		select {
		case record, ok := <-records:
			if !ok {
				// A failure is queued on errs before records closes.
				select {
				case err := <-errs:
					if err != nil {
						return c.fail(err)
					}
				default:
				}

				c.log.Debug("Inbound stream ended")

				return nil
			}

			if err := c.route(ctx, record, deliver); err != nil {
				return c.fail(err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil {
				return c.fail(err)
			}

		case <-c.done:
			return nil

		case <-ctx.Done():
			c.log.Debug("Context cancelled in protocol read loop")

			return ctx.Err()
		}
	}
}

// Stop cancels every in-flight handler and fails every pending outbound
// request. It does not wait for handlers to return; their results are
// discarded. Safe to call more than once and before Run.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.log.Debug("Stopping protocol controller")

		c.baseMu.Lock()
		close(c.done)

		if c.cancelBase != nil {
			c.cancelBase()
		}

		c.baseMu.Unlock()

		c.log.Info("Protocol controller stopped")
	})
}

func (c *Controller) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Controller) fail(err error) error {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.log.Error("Protocol controller failed", "error", err)
	c.Stop()

	return err
}

// SendRequest sends an outbound control request and waits for its response.
// An error response is returned as *errors.ControlError. There is no built-in
// timeout; ctx bounds the wait.
func (c *Controller) SendRequest(
	ctx context.Context,
	subtype string,
	payload map[string]any,
) (map[string]any, error) {
	if c.stopped() {
		return nil, c.stoppedErr()
	}

	req := &ControlRequest{
		ID:      ulid.Make().String(),
		Kind:    Kind(subtype),
		Subtype: subtype,
		Payload: payload,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal control request: %w", err)
	}

	pending := &pendingRequest{subtype: subtype, response: make(chan *ControlResponse, 1)}

	c.pendingMu.Lock()
	c.pending[req.ID] = pending
	c.pendingMu.Unlock()

	defer c.forget(req.ID)

	c.log.Debug("Sending control request", "request_id", req.ID, "subtype", subtype)

	if err := c.transport.Send(ctx, data); err != nil {
		return nil, fmt.Errorf("send control request: %w", err)
	}

	select {
	case resp := <-pending.response:
		if resp.IsError() {
			c.log.Warn("Control request failed", "request_id", req.ID, "subtype", subtype, "error", resp.Err)

			return nil, &errors.ControlError{Subtype: subtype, Message: resp.Err}
		}

		c.log.Debug("Control request completed", "request_id", req.ID, "subtype", subtype)

		return resp.Result, nil

	case <-c.done:
		return nil, c.stoppedErr()

	case <-ctx.Done():
		c.log.Debug("Control request cancelled", "request_id", req.ID, "subtype", subtype)

		return nil, ctx.Err()
	}
}

func (c *Controller) stoppedErr() error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrControllerStopped, err)
	}

	return errors.ErrControllerStopped
}

func (c *Controller) forget(id string) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	delete(c.pending, id)
}

func (c *Controller) route(ctx context.Context, record map[string]any, deliver DeliverFunc) error {
	msgType, _ := record["type"].(string)

	switch msgType {
	case TypeControlResponse:
		c.handleResponse(record)
	case TypeControlRequest:
		c.handleRequest(record)
	case TypeControlCancelRequest:
		c.handleCancel(record)
	default:
		return deliver(ctx, record)
	}

	return nil
}

// handleResponse resolves the pending request with the response's id. The
// entry is claimed under the lock, so each id resolves at most once.
func (c *Controller) handleResponse(record map[string]any) {
	resp, err := decodeResponse(record)
	if err != nil {
		c.log.Warn("Dropping malformed control response", "error", err)

		return
	}

	c.pendingMu.Lock()

	pending, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}

	c.pendingMu.Unlock()

	if !ok {
		c.log.Warn("Dropping control response with no pending request", "request_id", resp.ID)

		return
	}

	c.log.Debug("Received control response", "request_id", resp.ID, "subtype", pending.subtype)

	pending.response <- resp
}

// handleRequest starts a handler goroutine for an inbound request.
func (c *Controller) handleRequest(record map[string]any) {
	req, err := decodeRequest(record)
	if err != nil {
		c.log.Warn("Dropping malformed control request", "error", err)

		return
	}

	c.handlersMu.RLock()
	handler, ok := c.handlers[req.Kind]
	c.handlersMu.RUnlock()

	if !ok {
		handler = func(context.Context, *ControlRequest) (map[string]any, error) {
			return nil, fmt.Errorf("%w for control request subtype %q", errors.ErrNoHandler, req.Subtype)
		}
	}

	opCtx, cancel := context.WithCancel(c.base)
	op := &inFlightOperation{kind: req.Kind, cancel: cancel}

	c.inFlightMu.Lock()

	if _, dup := c.inFlight[req.ID]; dup {
		c.inFlightMu.Unlock()
		cancel()
		c.log.Warn("Dropping duplicate control request", "request_id", req.ID, "subtype", req.Subtype)

		return
	}

	c.inFlight[req.ID] = op
	c.inFlightMu.Unlock()

	c.log.Debug("Received control request", "request_id", req.ID, "subtype", req.Subtype)

	go c.runHandler(opCtx, op, req, handler)
}

func (c *Controller) runHandler(ctx context.Context, op *inFlightOperation, req *ControlRequest, handler Handler) {
	defer func() {
		c.inFlightMu.Lock()
		delete(c.inFlight, req.ID)
		c.inFlightMu.Unlock()

		op.cancel()
	}()

	payload, err := invoke(ctx, req, handler)

	if c.stopped() {
		c.log.Debug("Discarding handler result after stop", "request_id", req.ID)

		return
	}

	c.inFlightMu.Lock()
	cancelled := op.cancelled
	c.inFlightMu.Unlock()

	var resp *ControlResponse

	switch {
	case cancelled:
		resp = errorResponse(req.ID, errors.ErrOperationCancelled)
	case err != nil:
		c.log.Warn("Control request handler failed", "request_id", req.ID, "subtype", req.Subtype, "error", err)
		resp = errorResponse(req.ID, err)
	default:
		resp = successResponse(req.ID, payload)
	}

	c.send(resp)
}

// invoke runs handler, turning a panic into an error.
func invoke(ctx context.Context, req *ControlRequest, handler Handler) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler(ctx, req)
}

// handleCancel cancels the in-flight handler for the request id, if any,
// and acknowledges.
func (c *Controller) handleCancel(record map[string]any) {
	id, _ := record["request_id"].(string)
	if id == "" {
		c.log.Warn("Dropping cancel request without request_id")

		return
	}

	c.inFlightMu.Lock()

	op, found := c.inFlight[id]
	if found {
		op.cancelled = true
		op.cancel()
	}

	c.inFlightMu.Unlock()

	c.log.Debug("Received cancel request", "request_id", id, "found", found)

	go c.send(&ControlResponse{
		ID:      id,
		Subtype: subtypeCancelAck,
		Extra:   map[string]any{"found": found, "already_completed": !found},
	})
}

// send writes a control response using the controller's base context, so
// writes stop once the controller does.
func (c *Controller) send(resp *ControlResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.log.Error("Failed to marshal control response", "request_id", resp.ID, "error", err)

		return
	}

	if err := c.transport.Send(c.base, data); err != nil {
		if c.stopped() {
			c.log.Debug("Could not send control response during shutdown", "request_id", resp.ID, "error", err)

			return
		}

		c.log.Error("Failed to send control response", "request_id", resp.ID, "error", err)
	}
}

// InFlight returns the number of inbound requests being handled.
func (c *Controller) InFlight() int {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()

	return len(c.inFlight)
}
