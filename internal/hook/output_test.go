package hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		output JSONOutput
		want   map[string]any
	}{
		{
			name:   "nil output continues",
			output: nil,
			want:   map[string]any{"continue": true},
		},
		{
			name:   "continue false is kept",
			output: &SyncJSONOutput{Continue: new(false), StopReason: new("halt")},
			want:   map[string]any{"continue": false, "stopReason": "halt"},
		},
		{
			name: "hook specific output gets event name",
			output: &SyncJSONOutput{
				HookSpecificOutput: &PreToolUseSpecificOutput{
					PermissionDecision:       new("deny"),
					PermissionDecisionReason: new("dangerous"),
				},
			},
			want: map[string]any{
				"continue": true,
				"hookSpecificOutput": map[string]any{
					"hookEventName":            "PreToolUse",
					"permissionDecision":       "deny",
					"permissionDecisionReason": "dangerous",
				},
			},
		},
		{
			name:   "async",
			output: &AsyncJSONOutput{Async: true, AsyncTimeout: new(500)},
			want:   map[string]any{"async": true, "asyncTimeout": float64(500)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.output)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSyncJSONOutputBlocks(t *testing.T) {
	require.False(t, (*SyncJSONOutput)(nil).Blocks())
	require.False(t, (&SyncJSONOutput{}).Blocks())
	require.True(t, (&SyncJSONOutput{Continue: new(false)}).Blocks())
	require.True(t, (&SyncJSONOutput{Decision: new("block")}).Blocks())
	require.False(t, (&SyncJSONOutput{Decision: new("approve")}).Blocks())
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, in Input)
	}{
		{
			name: "post tool use failure",
			raw: map[string]any{
				"hook_event_name": "PostToolUseFailure",
				"tool_name":       "Bash",
				"error":           "exit 1",
				"is_interrupt":    true,
			},
			check: func(t *testing.T, in Input) {
				failure, ok := in.(*PostToolUseFailureInput)
				require.True(t, ok)
				require.Equal(t, "exit 1", failure.Error)
				require.True(t, *failure.IsInterrupt)
			},
		},
		{
			name: "pre compact",
			raw: map[string]any{
				"hook_event_name":     "PreCompact",
				"trigger":             "manual",
				"custom_instructions": "keep todos",
				"permission_mode":     "plan",
			},
			check: func(t *testing.T, in Input) {
				compact, ok := in.(*PreCompactInput)
				require.True(t, ok)
				require.Equal(t, "manual", compact.Trigger)
				require.Equal(t, "keep todos", *compact.CustomInstructions)
				require.Equal(t, "plan", *compact.Common().PermissionMode)
			},
		},
		{
			name: "unknown event keeps raw input",
			raw:  map[string]any{"hook_event_name": "SessionStart", "source": "startup", "session_id": "s"},
			check: func(t *testing.T, in Input) {
				generic, ok := in.(*GenericInput)
				require.True(t, ok)
				require.Equal(t, Event("SessionStart"), generic.EventName())
				require.Equal(t, "startup", generic.Raw["source"])
				require.Equal(t, "s", generic.SessionID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseInput(tt.raw)
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestParseInput_Invalid(t *testing.T) {
	_, err := ParseInput(nil)
	require.Error(t, err)

	_, err = ParseInput(map[string]any{"tool_name": "Bash"})
	require.Error(t, err)
}
