package config

import "context"

// Transport is a connected, bidirectional channel of line-delimited JSON
// records to the assistant process.
//
// Send must be safe for concurrent use and must write each record atomically.
// Close must be idempotent.
type Transport interface {
	// Connect establishes the channel.
	Connect(ctx context.Context) error

	// Records returns the inbound record stream. The record channel is closed
	// at end of stream; a failure is delivered on the error channel first.
	Records(ctx context.Context) (<-chan map[string]any, <-chan error)

	// Send writes one JSON record. A trailing newline is added if missing.
	Send(ctx context.Context, data []byte) error

	// EndInput closes the outbound side, signalling no more input.
	EndInput() error

	// Close releases the channel.
	Close() error
}

// TransportFactory builds a transport for a session. It receives the launch
// parameters the process spawner needs.
type TransportFactory func(launch *Launch) (Transport, error)

// Launch carries the resolved parameters for starting the assistant process.
type Launch struct {
	// Prompt is the fixed prompt, empty in streaming mode.
	Prompt string
	// Streaming selects streaming input mode.
	Streaming bool
	// PermissionMode is the normalized permission mode.
	PermissionMode string
	// PermissionPromptToolName is "stdio" when a permission callback is set.
	PermissionPromptToolName string
	// ToolServerNames lists in-process tool servers, sorted.
	ToolServerNames []string
	// Model is the requested model, if any.
	Model string
}
