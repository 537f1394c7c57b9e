package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/errors"
	"github.com/wagiedev/agentbridge/internal/message"
	"github.com/wagiedev/agentbridge/internal/protocol"
)

// Engine is one session with the assistant process.
type Engine struct {
	id  string
	log *slog.Logger
	cfg *config.Resolved

	handlers *protocol.Handlers
	messages chan message.Message
	msgOnce  sync.Once

	// resultSeen is closed when the first ResultMessage arrives.
	resultSeen chan struct{}
	resultOnce sync.Once

	errMu    sync.RWMutex
	fatalErr error

	infoMu     sync.RWMutex
	serverInfo map[string]any

	// done is closed when Close starts.
	done      chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	state      State
	transport  config.Transport
	controller *protocol.Controller
	cancel     context.CancelCauseFunc
	loopDone   chan struct{}
}

// New validates opts against prompt and creates an engine. Configuration
// mistakes are reported here as *errors.ConfigError, before any I/O.
func New(opts *config.Options, prompt config.Prompt) (*Engine, error) {
	cfg, err := config.Resolve(opts, prompt)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := cfg.Logger.With("component", "engine", "engine_id", id)

	return &Engine{
		id:         id,
		log:        log,
		cfg:        cfg,
		handlers:   protocol.NewHandlers(log, cfg.Hooks, cfg.CanUseTool, cfg.ToolServers),
		messages:   make(chan message.Message, cfg.MessageBufferSize),
		resultSeen: make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// ID returns the engine's unique id, also carried on its log lines.
func (e *Engine) ID() string {
	return e.id
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Launch returns the resolved process launch parameters.
func (e *Engine) Launch() config.Launch {
	return e.cfg.Launch
}

// Streaming reports whether the engine runs in streaming mode.
func (e *Engine) Streaming() bool {
	return e.cfg.Streaming()
}

func (e *Engine) setState(from, to State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == from {
		e.state = to
		e.log.Debug("State changed", "from", from.String(), "to", to.String())
	}
}

// Connect obtains and connects the transport, starts the dispatch loop and,
// in streaming mode, performs the initialize handshake and starts sending
// the input stream. In fixed-prompt mode input is ended at once.
//
// ctx bounds the connection and handshake only; the session stays up until
// Close or the end of the inbound stream.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()

	switch e.state {
	case StateCreated:
	case StateClosed:
		e.mu.Unlock()

		return errors.ErrClosed
	default:
		e.mu.Unlock()

		return errors.ErrAlreadyConnected
	}

	// Claim the engine so a concurrent Connect fails.
	e.state = StateConnected
	e.mu.Unlock()

	e.log.Info("Connecting", "streaming", e.cfg.Streaming())

	transport, err := e.obtainTransport()
	if err != nil {
		e.abort(nil)

		return err
	}

	if err := transport.Connect(ctx); err != nil {
		e.abort(transport)

		return fmt.Errorf("connect transport: %w", err)
	}

	controller := protocol.NewController(e.log, transport)
	e.handlers.Register(controller)

	// The session outlives ctx; Close cancels runCtx.
	runCtx, cancel := context.WithCancelCause(context.Background())
	eg, egCtx := errgroup.WithContext(runCtx)
	loopDone := make(chan struct{})

	e.mu.Lock()

	if e.state == StateClosed {
		e.mu.Unlock()
		cancel(errors.ErrClosed)
		_ = transport.Close()
		e.closeMessages()

		return errors.ErrClosed
	}

	e.transport = transport
	e.controller = controller
	e.cancel = cancel
	e.loopDone = loopDone
	e.mu.Unlock()

	eg.Go(func() error {
		defer close(loopDone)
		defer e.closeMessages()

		err := controller.Run(egCtx, e.deliver)
		if err != nil && !e.closing() {
			e.fail(err)

			return err
		}

		return nil
	})

	if !e.cfg.Streaming() {
		e.setState(StateConnected, StateDraining)

		if err := transport.EndInput(); err != nil {
			e.fail(fmt.Errorf("end input: %w", err))

			return fmt.Errorf("end input: %w", err)
		}

		e.log.Info("Connected", "mode", "fixed_prompt")

		return nil
	}

	initCtx := ctx

	if e.cfg.InitializeTimeout > 0 {
		var cancelInit context.CancelFunc

		initCtx, cancelInit = context.WithTimeout(ctx, e.cfg.InitializeTimeout)
		defer cancelInit()
	}

	info, err := e.handlers.Initialize(initCtx, controller)
	if err != nil {
		e.log.Error("Initialize handshake failed", "error", err)
		_ = e.Close()

		return err
	}

	e.infoMu.Lock()
	e.serverInfo = info
	e.infoMu.Unlock()

	e.setState(StateConnected, StateStreaming)

	eg.Go(func() error {
		return e.streamInput(egCtx, transport)
	})

	e.log.Info("Connected", "mode", "streaming")

	return nil
}

func (e *Engine) obtainTransport() (config.Transport, error) {
	if e.cfg.Transport != nil {
		return e.cfg.Transport, nil
	}

	launch := e.cfg.Launch

	transport, err := e.cfg.NewTransport(&launch)
	if err != nil {
		return nil, &errors.ConnectionError{Err: fmt.Errorf("create transport: %w", err)}
	}

	if transport == nil {
		return nil, &errors.ConnectionError{Err: fmt.Errorf("transport factory returned nil")}
	}

	return transport, nil
}

// abort marks a failed Connect terminal.
func (e *Engine) abort(transport config.Transport) {
	if transport != nil {
		_ = transport.Close()
	}

	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.state = StateClosed
		e.mu.Unlock()

		close(e.done)
	})

	e.closeMessages()
}

// closeMessages ends the caller's sequence. Only the dispatch loop sends on
// the channel, so it is called by the loop or before the loop exists.
func (e *Engine) closeMessages() {
	e.msgOnce.Do(func() { close(e.messages) })
}

// streamInput sends the caller's input records in order. Afterwards, unless
// the prompt keeps input open, it ends input; when control handlers are
// configured it first waits for the first result so their requests can
// still be answered.
func (e *Engine) streamInput(ctx context.Context, transport config.Transport) error {
	count := 0

	for record := range e.cfg.Prompt.Stream {
		if ctx.Err() != nil || e.closing() {
			e.log.Debug("Input stream stopped by shutdown", "sent", count)

			return nil
		}

		data, err := json.Marshal(record)
		if err != nil {
			err = fmt.Errorf("marshal input record: %w", err)
			e.fail(err)

			return err
		}

		if err := transport.Send(ctx, data); err != nil {
			if e.closing() || ctx.Err() != nil {
				return nil
			}

			err = fmt.Errorf("send input record: %w", err)
			e.fail(err)

			return err
		}

		count++
	}

	e.log.Debug("Input stream exhausted", "sent", count)

	if e.cfg.Prompt.KeepOpen {
		return nil
	}

	if e.cfg.HasHandlers() {
		select {
		case <-e.resultSeen:
		case <-ctx.Done():
			return nil
		case <-e.done:
			return nil
		}
	}

	e.setState(StateStreaming, StateDraining)

	if err := transport.EndInput(); err != nil && !e.closing() {
		e.log.Warn("Failed to end input", "error", err)
	}

	return nil
}

// deliver validates one conversation record and queues it for the caller.
// A record that fails validation ends the session.
func (e *Engine) deliver(ctx context.Context, record map[string]any) error {
	msg, err := message.Validate(record)
	if err != nil {
		return err
	}

	if _, ok := msg.(*message.ResultMessage); ok {
		e.resultOnce.Do(func() { close(e.resultSeen) })
	}

	e.log.Debug("Queued message", "message_type", msg.MessageType())

	select {
	case e.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the conversation messages in arrival order. The sequence
// ends at end of stream or Close. A parse or transport failure is yielded as
// the final element. It is single pass: messages taken by one iteration are
// not seen by another.
func (e *Engine) Messages(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if e.State() == StateCreated {
			yield(nil, errors.ErrNotConnected)

			return
		}

		for {
			select {
			case msg, ok := <-e.messages:
				if !ok {
					if err := e.Err(); err != nil {
						yield(nil, err)
					}

					return
				}

				if !yield(msg, nil) {
					return
				}

			case <-ctx.Done():
				yield(nil, ctx.Err())

				return
			}
		}
	}
}

// Err returns the failure that ended the session, if any.
func (e *Engine) Err() error {
	e.errMu.RLock()
	defer e.errMu.RUnlock()

	return e.fatalErr
}

// fail records err as the session failure and tears the session down
// without waiting for any goroutine.
func (e *Engine) fail(err error) {
	e.errMu.Lock()

	first := e.fatalErr == nil
	if first {
		e.fatalErr = err
	}

	e.errMu.Unlock()

	if !first {
		return
	}

	e.log.Error("Session failed", "error", err)

	e.mu.Lock()
	controller, transport, cancel := e.controller, e.transport, e.cancel
	e.mu.Unlock()

	if controller != nil {
		controller.Stop()
	}

	if cancel != nil {
		cancel(err)
	}

	if transport != nil {
		_ = transport.Close()
	}
}

func (e *Engine) closing() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Send writes one extra input record. It requires streaming mode.
func (e *Engine) Send(ctx context.Context, record message.InputRecord) error {
	transport, _, err := e.live()
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal input record: %w", err)
	}

	e.log.Debug("Sending input record", "session_id", record.SessionID)

	if err := transport.Send(ctx, data); err != nil {
		return fmt.Errorf("send input record: %w", err)
	}

	return nil
}

// Request sends an outbound control request and returns the success
// payload. It requires streaming mode.
func (e *Engine) Request(ctx context.Context, subtype string, payload map[string]any) (map[string]any, error) {
	_, controller, err := e.live()
	if err != nil {
		return nil, err
	}

	return controller.SendRequest(ctx, subtype, payload)
}

// live returns the transport and controller of a connected streaming session.
func (e *Engine) live() (config.Transport, *protocol.Controller, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.state == StateClosed:
		return nil, nil, errors.ErrClosed
	case e.transport == nil:
		return nil, nil, errors.ErrNotConnected
	case !e.cfg.Streaming():
		return nil, nil, errors.ErrNotStreaming
	}

	return e.transport, e.controller, nil
}

// ServerInfo returns a copy of the initialize handshake reply, or nil.
func (e *Engine) ServerInfo() map[string]any {
	e.infoMu.RLock()
	defer e.infoMu.RUnlock()

	if e.serverInfo == nil {
		return nil
	}

	return maps.Clone(e.serverInfo)
}

// Close ends the session: in-flight handlers are cancelled without waiting
// for them, the dispatch loop is stopped and the transport is closed. Close
// is safe to call more than once and before Connect.
func (e *Engine) Close() error {
	var closeErr error

	e.closeOnce.Do(func() {
		e.mu.Lock()
		prev := e.state
		e.state = StateClosed
		controller, transport, cancel, loopDone := e.controller, e.transport, e.cancel, e.loopDone
		e.mu.Unlock()

		close(e.done)

		if loopDone == nil {
			// Never connected, or Connect is still starting up and will
			// release what it acquired once it sees StateClosed.
			if prev == StateCreated {
				e.closeMessages()
			}

			return
		}

		e.log.Info("Closing")

		controller.Stop()
		cancel(errors.ErrClosed)

		closeErr = transport.Close()

		// The loop exits promptly once its context is cancelled. The input
		// goroutine may be parked in the caller's iterator and is not awaited.
		<-loopDone

		e.log.Info("Closed")
	})

	return closeErr
}
