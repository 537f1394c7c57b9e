package agentbridge

import (
	"context"
	"iter"
	"sync"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/engine"
	"github.com/wagiedev/agentbridge/internal/errors"
	"github.com/wagiedev/agentbridge/internal/message"
)

// clientImpl adapts an engine to the Client interface.
type clientImpl struct {
	mu     sync.Mutex
	engine *engine.Engine
	closed bool
}

// Compile-time check that *clientImpl implements the Client interface.
var _ Client = (*clientImpl)(nil)

func newClientImpl() Client {
	return &clientImpl{}
}

// Start connects an interactive session.
func (c *clientImpl) Start(ctx context.Context, opts ...Option) error {
	return c.start(ctx, config.InteractivePrompt(nil), opts)
}

// StartWithPrompt connects an interactive session and sends prompt.
func (c *clientImpl) StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error {
	if err := c.Start(ctx, opts...); err != nil {
		return err
	}

	return c.Query(ctx, prompt)
}

// StartWithStream connects a streaming session fed by records.
func (c *clientImpl) StartWithStream(ctx context.Context, records iter.Seq[InputRecord], opts ...Option) error {
	return c.start(ctx, config.StreamPrompt(records), opts)
}

func (c *clientImpl) start(ctx context.Context, prompt Prompt, opts []Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return errors.ErrClosed
	case c.engine != nil:
		return errors.ErrAlreadyConnected
	}

	e, err := engine.New(applyOptions(opts), prompt)
	if err != nil {
		return err
	}

	if err := e.Connect(ctx); err != nil {
		return err
	}

	c.engine = e

	return nil
}

// current returns the connected engine.
func (c *clientImpl) current() (*engine.Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, errors.ErrClosed
	case c.engine == nil:
		return nil, errors.ErrNotConnected
	}

	return c.engine, nil
}

// Query sends a user turn.
func (c *clientImpl) Query(ctx context.Context, prompt string, sessionID ...string) error {
	e, err := c.current()
	if err != nil {
		return err
	}

	record := message.NewUserInput(prompt)
	if len(sessionID) > 0 {
		record.SessionID = sessionID[0]
	}

	return e.Send(ctx, record)
}

// ReceiveMessages yields messages until the session ends.
func (c *clientImpl) ReceiveMessages(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		e, err := c.current()
		if err != nil {
			yield(nil, err)

			return
		}

		for msg, err := range e.Messages(ctx) {
			if !yield(msg, err) {
				return
			}
		}
	}
}

// ReceiveResponse yields messages through the next ResultMessage.
func (c *clientImpl) ReceiveResponse(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for msg, err := range c.ReceiveMessages(ctx) {
			if !yield(msg, err) || err != nil {
				return
			}

			if _, ok := msg.(*ResultMessage); ok {
				return
			}
		}
	}
}

// Interrupt asks the assistant process to stop its current turn.
func (c *clientImpl) Interrupt(ctx context.Context) error {
	e, err := c.current()
	if err != nil {
		return err
	}

	return e.Interrupt(ctx)
}

// SetPermissionMode changes the permission mode.
func (c *clientImpl) SetPermissionMode(ctx context.Context, mode string) error {
	e, err := c.current()
	if err != nil {
		return err
	}

	return e.SetPermissionMode(ctx, mode)
}

// SetModel changes the model.
func (c *clientImpl) SetModel(ctx context.Context, model *string) error {
	e, err := c.current()
	if err != nil {
		return err
	}

	return e.SetModel(ctx, model)
}

// ServerInfo returns the initialize handshake reply.
func (c *clientImpl) ServerInfo() map[string]any {
	e, err := c.current()
	if err != nil {
		return nil
	}

	return e.ServerInfo()
}

// Close ends the session.
func (c *clientImpl) Close() error {
	c.mu.Lock()
	e := c.engine
	c.closed = true
	c.mu.Unlock()

	if e == nil {
		return nil
	}

	return e.Close()
}
