package agentbridge

import (
	"log/slog"
	"time"

	"github.com/wagiedev/agentbridge/internal/config"
)

// DefaultToolServerName is the server name WithTools registers under.
const DefaultToolServerName = "sdk"

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for engine diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithModel sets the model the assistant process starts with.
// It is handed to the transport factory.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithPermissionMode controls how permissions are handled.
// Valid values: "default", "acceptEdits", "plan", "bypassPermissions".
// The legacy names "acceptAll" and "prompt" are accepted.
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// ===== Callbacks =====

// WithCanUseTool sets a callback consulted for every tool permission check.
// It requires a streaming prompt and cannot be combined with
// WithPermissionPromptToolName.
func WithCanUseTool(callback CanUseToolCallback) Option {
	return func(o *Options) {
		o.CanUseTool = callback
	}
}

// WithPermissionPromptToolName names an MCP tool that answers permission
// checks instead of a callback.
func WithPermissionPromptToolName(name string) Option {
	return func(o *Options) {
		o.PermissionPromptToolName = name
	}
}

// WithHooks configures hook callbacks by event. Requires a streaming prompt.
func WithHooks(hooks map[HookEvent][]*HookMatcher) Option {
	return func(o *Options) {
		o.Hooks = hooks
	}
}

// ===== Tool Servers =====

// WithToolServer registers one in-process tool server under name.
func WithToolServer(name string, server ToolServer) Option {
	return func(o *Options) {
		if o.ToolServers == nil {
			o.ToolServers = make(map[string]ToolServer, 1)
		}

		o.ToolServers[name] = server
	}
}

// WithToolServers registers in-process tool servers keyed by name,
// replacing any registered before.
func WithToolServers(servers map[string]ToolServer) Option {
	return func(o *Options) {
		o.ToolServers = servers
	}
}

// WithTools registers tools as an in-process server named
// DefaultToolServerName (tool names: mcp__sdk__<name>).
func WithTools(tools ...*Tool) Option {
	return func(o *Options) {
		if len(tools) == 0 {
			return
		}

		WithToolServer(DefaultToolServerName, CreateToolServer(DefaultToolServerName, "1.0.0", tools...))(o)
	}
}

// ===== Transport =====

// WithTransport injects a ready-made transport. The transport must already
// carry everything the assistant process needs to start.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithTransportFactory sets a function that builds the transport from the
// resolved launch parameters.
func WithTransportFactory(factory func(launch *Launch) (Transport, error)) Option {
	return func(o *Options) {
		o.NewTransport = config.TransportFactory(factory)
	}
}

// ===== Advanced =====

// WithInitializeTimeout bounds the initialize handshake in streaming mode.
func WithInitializeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.InitializeTimeout = timeout
	}
}

// WithMessageBufferSize sets how many messages are buffered ahead of the
// consumer.
func WithMessageBufferSize(size int) Option {
	return func(o *Options) {
		o.MessageBufferSize = size
	}
}
