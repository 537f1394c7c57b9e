package config

import (
	"context"
	"errors"
	"testing"

	bridgeerrors "github.com/wagiedev/agentbridge/internal/errors"
	"github.com/wagiedev/agentbridge/internal/hook"
	"github.com/wagiedev/agentbridge/internal/mcp"
	"github.com/wagiedev/agentbridge/internal/message"
	"github.com/wagiedev/agentbridge/internal/permission"

	"github.com/stretchr/testify/require"
)

type nopTransport struct{}

func (nopTransport) Connect(context.Context) error { return nil }

func (nopTransport) Records(context.Context) (<-chan map[string]any, <-chan error) {
	return nil, nil
}

func (nopTransport) Send(context.Context, []byte) error { return nil }

func (nopTransport) EndInput() error { return nil }

func (nopTransport) Close() error { return nil }

func allowAll(context.Context, string, map[string]any, *permission.Context) (permission.Result, error) {
	return &permission.ResultAllow{}, nil
}

func noopHook(context.Context, hook.Input, *string, *hook.Context) (hook.JSONOutput, error) {
	return nil, nil
}

func streaming() Prompt {
	return StreamPrompt(func(yield func(message.InputRecord) bool) {
		yield(message.NewUserInput("ping"))
	})
}

func TestResolve_ConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		opts      *Options
		prompt    Prompt
		wantField string
	}{
		{
			name:      "permission callback with fixed prompt",
			opts:      &Options{Transport: nopTransport{}, CanUseTool: allowAll},
			prompt:    TextPrompt("ping"),
			wantField: "CanUseTool",
		},
		{
			name: "permission callback with prompt tool name",
			opts: &Options{
				Transport:                nopTransport{},
				CanUseTool:               allowAll,
				PermissionPromptToolName: "mcp__perm__check",
			},
			prompt:    streaming(),
			wantField: "PermissionPromptToolName",
		},
		{
			name: "hooks with fixed prompt",
			opts: &Options{
				Transport: nopTransport{},
				Hooks:     map[hook.Event][]*hook.Matcher{hook.EventStop: {{Hooks: []hook.Callback{noopHook}}}},
			},
			prompt:    TextPrompt("ping"),
			wantField: "Hooks",
		},
		{
			name: "invalid matcher",
			opts: &Options{
				Transport: nopTransport{},
				Hooks:     map[hook.Event][]*hook.Matcher{hook.EventPreToolUse: {{Matcher: new("|"), Hooks: []hook.Callback{noopHook}}}},
			},
			prompt:    streaming(),
			wantField: "Hooks",
		},
		{
			name: "tool servers with fixed prompt",
			opts: &Options{
				Transport:   nopTransport{},
				ToolServers: map[string]mcp.Server{"calc": mcp.NewSDKServer("calc", "1.0.0")},
			},
			prompt:    TextPrompt("ping"),
			wantField: "ToolServers",
		},
		{
			name:      "nil tool server",
			opts:      &Options{Transport: nopTransport{}, ToolServers: map[string]mcp.Server{"calc": nil}},
			prompt:    streaming(),
			wantField: "ToolServers",
		},
		{
			name:      "no transport",
			opts:      &Options{},
			prompt:    TextPrompt("ping"),
			wantField: "Transport",
		},
		{
			name: "both transport and factory",
			opts: &Options{
				Transport:    nopTransport{},
				NewTransport: func(*Launch) (Transport, error) { return nopTransport{}, nil },
			},
			prompt:    TextPrompt("ping"),
			wantField: "Transport",
		},
		{
			name:      "empty fixed prompt",
			opts:      &Options{Transport: nopTransport{}},
			prompt:    TextPrompt(""),
			wantField: "Prompt",
		},
		{
			name:      "negative buffer",
			opts:      &Options{Transport: nopTransport{}, MessageBufferSize: -1},
			prompt:    TextPrompt("ping"),
			wantField: "MessageBufferSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.opts, tt.prompt)
			require.Nil(t, resolved)

			cfgErr, ok := errors.AsType[*bridgeerrors.ConfigError](err)
			require.True(t, ok, "expected *ConfigError, got %T: %v", err, err)
			require.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestResolve_PermissionCallbackUsesStdio(t *testing.T) {
	opts := &Options{Transport: nopTransport{}, CanUseTool: allowAll}

	resolved, err := Resolve(opts, streaming())
	require.NoError(t, err)
	require.Equal(t, PermissionPromptStdio, resolved.Launch.PermissionPromptToolName)
	require.True(t, resolved.HasHandlers())
	require.Empty(t, opts.PermissionPromptToolName, "caller options must not be modified")
}

func TestResolve_FixedPrompt(t *testing.T) {
	resolved, err := Resolve(&Options{
		Transport:                nopTransport{},
		PermissionMode:           "acceptAll",
		PermissionPromptToolName: "mcp__perm__check",
		Model:                    "sonnet",
	}, TextPrompt("ping"))
	require.NoError(t, err)

	require.False(t, resolved.Streaming())
	require.False(t, resolved.HasHandlers())
	require.Equal(t, Launch{
		Prompt:                   "ping",
		PermissionMode:           "bypassPermissions",
		PermissionPromptToolName: "mcp__perm__check",
		Model:                    "sonnet",
	}, resolved.Launch)
	require.Equal(t, DefaultMessageBufferSize, resolved.MessageBufferSize)
	require.NotNil(t, resolved.Logger)
	require.Empty(t, resolved.Hooks.Wire())
}

func TestResolve_StreamingWithHandlers(t *testing.T) {
	resolved, err := Resolve(&Options{
		NewTransport: func(*Launch) (Transport, error) { return nopTransport{}, nil },
		Hooks: map[hook.Event][]*hook.Matcher{
			hook.EventPreToolUse: {{Matcher: new("Bash"), Hooks: []hook.Callback{noopHook}}},
		},
		ToolServers: map[string]mcp.Server{
			"b": mcp.NewSDKServer("b", "1"),
			"a": mcp.NewSDKServer("a", "1"),
		},
	}, streaming())
	require.NoError(t, err)

	require.True(t, resolved.Streaming())
	require.True(t, resolved.HasHandlers())
	require.Empty(t, resolved.Launch.Prompt)
	require.Equal(t, []string{"a", "b"}, resolved.Launch.ToolServerNames)
	require.Contains(t, resolved.Hooks.Wire(), "PreToolUse")
}

func TestPrompt_IsStreaming(t *testing.T) {
	require.False(t, TextPrompt("x").IsStreaming())
	require.True(t, StreamPrompt(nil).IsStreaming())
	require.True(t, InteractivePrompt(nil).IsStreaming())
	require.True(t, InteractivePrompt(nil).KeepOpen)
}

func TestNormalizePermissionMode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "legacy acceptAll", in: "acceptAll", want: "bypassPermissions"},
		{name: "legacy prompt", in: "prompt", want: "default"},
		{name: "current mode unchanged", in: "acceptEdits", want: "acceptEdits"},
		{name: "empty unchanged", in: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizePermissionMode(tc.in))
		})
	}
}
