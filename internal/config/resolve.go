package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/agentbridge/internal/errors"
	"github.com/wagiedev/agentbridge/internal/hook"
	"github.com/wagiedev/agentbridge/internal/mcp"
	"github.com/wagiedev/agentbridge/internal/permission"
)

// PermissionPromptStdio is the permission prompt tool name that routes
// permission checks back over the control channel.
const PermissionPromptStdio = "stdio"

// DefaultMessageBufferSize is used when Options.MessageBufferSize is zero.
const DefaultMessageBufferSize = 100

// Resolved is the validated, derived form of Options for one session.
type Resolved struct {
	Logger            *slog.Logger
	Prompt            Prompt
	Hooks             *hook.Registry
	CanUseTool        permission.Callback
	ToolServers       *mcp.Router
	Launch            Launch
	InitializeTimeout time.Duration
	MessageBufferSize int

	Transport    Transport
	NewTransport TransportFactory
}

// Streaming reports whether the session runs in streaming mode.
func (r *Resolved) Streaming() bool {
	return r.Launch.Streaming
}

// HasHandlers reports whether the assistant process may send control requests
// this session can answer.
func (r *Resolved) HasHandlers() bool {
	return r.Hooks.Len() > 0 || r.CanUseTool != nil || r.ToolServers.Len() > 0
}

// Resolve checks opts against prompt and derives the session settings.
// It performs no I/O and does not modify opts. Every rejection is a
// *errors.ConfigError.
func Resolve(opts *Options, prompt Prompt) (*Resolved, error) {
	if opts == nil {
		opts = &Options{}
	}

	streaming := prompt.IsStreaming()

	if !streaming && prompt.Text == "" {
		return nil, &errors.ConfigError{Field: "Prompt", Reason: "fixed prompt is empty"}
	}

	switch {
	case opts.Transport == nil && opts.NewTransport == nil:
		return nil, &errors.ConfigError{Field: "Transport", Reason: "no transport or transport factory configured"}
	case opts.Transport != nil && opts.NewTransport != nil:
		return nil, &errors.ConfigError{Field: "Transport", Reason: "Transport and NewTransport are mutually exclusive"}
	}

	toolName := opts.PermissionPromptToolName

	if opts.CanUseTool != nil {
		if !streaming {
			return nil, &errors.ConfigError{
				Field:  "CanUseTool",
				Reason: "permission callback requires a streaming prompt",
			}
		}

		if toolName != "" {
			return nil, &errors.ConfigError{
				Field:  "PermissionPromptToolName",
				Reason: "cannot be combined with a permission callback",
			}
		}

		toolName = PermissionPromptStdio
	}

	hooks, err := hook.NewRegistry(opts.Hooks)
	if err != nil {
		return nil, &errors.ConfigError{Field: "Hooks", Reason: err.Error()}
	}

	if hooks.Len() > 0 && !streaming {
		return nil, &errors.ConfigError{Field: "Hooks", Reason: "hooks require a streaming prompt"}
	}

	for name, srv := range opts.ToolServers {
		if name == "" || srv == nil {
			return nil, &errors.ConfigError{Field: "ToolServers", Reason: "tool servers need a name and a non-nil server"}
		}
	}

	servers := mcp.NewRouter(opts.ToolServers)

	if servers.Len() > 0 && !streaming {
		return nil, &errors.ConfigError{Field: "ToolServers", Reason: "tool servers require a streaming prompt"}
	}

	if opts.InitializeTimeout < 0 {
		return nil, &errors.ConfigError{Field: "InitializeTimeout", Reason: "must not be negative"}
	}

	bufferSize := opts.MessageBufferSize

	switch {
	case bufferSize < 0:
		return nil, &errors.ConfigError{Field: "MessageBufferSize", Reason: "must not be negative"}
	case bufferSize == 0:
		bufferSize = DefaultMessageBufferSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	launch := Launch{
		Streaming:                streaming,
		PermissionMode:           NormalizePermissionMode(opts.PermissionMode),
		PermissionPromptToolName: toolName,
		ToolServerNames:          servers.Names(),
		Model:                    opts.Model,
	}

	if !streaming {
		launch.Prompt = prompt.Text
	}

	return &Resolved{
		Logger:            logger,
		Prompt:            prompt,
		Hooks:             hooks,
		CanUseTool:        opts.CanUseTool,
		ToolServers:       servers,
		Launch:            launch,
		InitializeTimeout: opts.InitializeTimeout,
		MessageBufferSize: bufferSize,
		Transport:         opts.Transport,
		NewTransport:      opts.NewTransport,
	}, nil
}

// NormalizePermissionMode maps legacy permission mode names to current ones:
// "acceptAll" becomes "bypassPermissions" and "prompt" becomes "default".
func NormalizePermissionMode(mode string) string {
	switch mode {
	case "acceptAll":
		return string(permission.ModeBypassPermissions)
	case "prompt":
		return string(permission.ModeDefault)
	default:
		return mode
	}
}
