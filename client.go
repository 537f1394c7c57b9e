package agentbridge

import (
	"context"
	"iter"
)

// Client is an interactive, stateful session for multi-turn conversations.
//
// Unlike Query, a Client keeps the input side open so further user turns
// and control requests can be sent at any time.
//
// Lifecycle: clients are single use. After Close, create a new one.
//
//	client := agentbridge.NewClient()
//	defer client.Close()
//
//	if err := client.Start(ctx, agentbridge.WithTransportFactory(spawn)); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Query(ctx, "What is 2+2?"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for msg, err := range client.ReceiveResponse(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // Process message...
//	}
type Client interface {
	// Start connects the session and performs the initialize handshake.
	// Input stays open until Close.
	Start(ctx context.Context, opts ...Option) error

	// StartWithPrompt is Start followed by Query(ctx, prompt).
	StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error

	// StartWithStream connects the session and sends records from the
	// iterator in a separate goroutine. Input is ended once the iterator is
	// exhausted, so Query cannot be used afterwards.
	StartWithStream(ctx context.Context, records iter.Seq[InputRecord], opts ...Option) error

	// Query sends a user turn. It returns once the record is written; read
	// the reply with ReceiveMessages or ReceiveResponse.
	// The optional sessionID is carried on the record.
	Query(ctx context.Context, prompt string, sessionID ...string) error

	// ReceiveMessages yields messages until end of stream, an error, or
	// context cancellation.
	ReceiveMessages(ctx context.Context) iter.Seq2[Message, error]

	// ReceiveResponse yields messages up to and including the next
	// ResultMessage.
	ReceiveResponse(ctx context.Context) iter.Seq2[Message, error]

	// Interrupt asks the assistant process to stop its current turn.
	Interrupt(ctx context.Context) error

	// SetPermissionMode changes the permission mode mid-session.
	SetPermissionMode(ctx context.Context, mode string) error

	// SetModel changes the model mid-session. Nil selects the default.
	SetModel(ctx context.Context, model *string) error

	// ServerInfo returns the initialize handshake reply, or nil before Start.
	ServerInfo() map[string]any

	// Close ends the session without waiting for in-flight callbacks.
	// Safe to call multiple times.
	Close() error
}

// NewClient creates an interactive client. Call Start to begin a session.
func NewClient() Client {
	return newClientImpl()
}
