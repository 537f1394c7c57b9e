// Package config holds session configuration and the adapter that turns it
// into the resolved settings an engine runs with.
package config

import (
	"iter"
	"log/slog"
	"time"

	"github.com/wagiedev/agentbridge/internal/hook"
	"github.com/wagiedev/agentbridge/internal/mcp"
	"github.com/wagiedev/agentbridge/internal/message"
	"github.com/wagiedev/agentbridge/internal/permission"
)

// Options configures one session. Options are plain data: combinations are
// checked by Resolve, not here.
type Options struct {
	// Logger receives engine diagnostics. Nil disables logging.
	Logger *slog.Logger

	// PermissionMode is forwarded to the assistant process.
	// Legacy aliases "acceptAll" and "prompt" are normalized.
	PermissionMode string

	// CanUseTool is consulted for every tool permission check.
	// Requires a streaming prompt.
	CanUseTool permission.Callback

	// PermissionPromptToolName names an MCP tool that answers permission
	// checks. Mutually exclusive with CanUseTool.
	PermissionPromptToolName string

	// Hooks maps events to matchers. Requires a streaming prompt.
	Hooks map[hook.Event][]*hook.Matcher

	// ToolServers are in-process tool servers keyed by the name the assistant
	// process addresses them with. Requires a streaming prompt.
	ToolServers map[string]mcp.Server

	// Model is forwarded to the transport factory.
	Model string

	// Transport is a ready-made transport. Mutually exclusive with NewTransport.
	Transport Transport

	// NewTransport builds a transport from the resolved launch parameters.
	NewTransport TransportFactory

	// InitializeTimeout bounds the initialize handshake. Zero means the
	// handshake is bounded only by the caller's context.
	InitializeTimeout time.Duration

	// MessageBufferSize is the number of conversation messages buffered ahead
	// of the consumer. Zero selects the default.
	MessageBufferSize int
}

// Prompt is the caller's input: a fixed string sent once, or a stream of
// user records.
type Prompt struct {
	// Text is the fixed prompt. Ignored when Stream is set.
	Text string
	// Stream yields user records in streaming mode.
	Stream iter.Seq[message.InputRecord]
	// KeepOpen leaves the input side open after Stream is exhausted so more
	// records can be sent later.
	KeepOpen bool
}

// TextPrompt creates a fixed prompt.
func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

// StreamPrompt creates a streaming prompt. Input is ended once records is
// exhausted and the session has no further use for it.
func StreamPrompt(records iter.Seq[message.InputRecord]) Prompt {
	if records == nil {
		records = func(func(message.InputRecord) bool) {}
	}

	return Prompt{Stream: records}
}

// InteractivePrompt creates a streaming prompt whose input stays open until
// the session is closed. records may be nil.
func InteractivePrompt(records iter.Seq[message.InputRecord]) Prompt {
	p := StreamPrompt(records)
	p.KeepOpen = true

	return p
}

// IsStreaming reports whether the prompt uses streaming mode.
func (p Prompt) IsStreaming() bool {
	return p.Stream != nil || p.KeepOpen
}
