package hook

import (
	"encoding/json"
	"fmt"
)

// JSONOutput is what a callback returns: *SyncJSONOutput or *AsyncJSONOutput.
type JSONOutput interface {
	hookOutput()
}

// Compile-time verification that hook output types implement JSONOutput.
var (
	_ JSONOutput = (*AsyncJSONOutput)(nil)
	_ JSONOutput = (*SyncJSONOutput)(nil)
)

// AsyncJSONOutput tells the assistant process the hook continues in the background.
type AsyncJSONOutput struct {
	Async        bool `json:"async"`
	AsyncTimeout *int `json:"asyncTimeout,omitempty"` // milliseconds
}

func (*AsyncJSONOutput) hookOutput() {}

// SyncJSONOutput is a hook's decision for the current invocation.
type SyncJSONOutput struct {
	Continue           *bool          `json:"continue,omitempty"`
	SuppressOutput     *bool          `json:"suppressOutput,omitempty"`
	StopReason         *string        `json:"stopReason,omitempty"`
	Decision           *string        `json:"decision,omitempty"` // "block"
	SystemMessage      *string        `json:"systemMessage,omitempty"`
	Reason             *string        `json:"reason,omitempty"`
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

func (*SyncJSONOutput) hookOutput() {}

// Blocks reports whether the output stops further processing.
func (o *SyncJSONOutput) Blocks() bool {
	if o == nil {
		return false
	}

	return (o.Continue != nil && !*o.Continue) || (o.Decision != nil && *o.Decision == "block")
}

// SpecificOutput is event-specific hook output.
type SpecificOutput interface {
	EventName() Event
}

// Compile-time verification that hook-specific output types implement SpecificOutput.
var (
	_ SpecificOutput = (*PreToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*PostToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*PostToolUseFailureSpecificOutput)(nil)
	_ SpecificOutput = (*UserPromptSubmitSpecificOutput)(nil)
	_ SpecificOutput = (*SubagentStartSpecificOutput)(nil)
	_ SpecificOutput = (*NotificationSpecificOutput)(nil)
	_ SpecificOutput = (*PermissionRequestSpecificOutput)(nil)
)

// PreToolUseSpecificOutput can allow, deny or rewrite a pending tool call.
type PreToolUseSpecificOutput struct {
	PermissionDecision       *string        `json:"permissionDecision,omitempty"` // "allow", "deny" or "ask"
	PermissionDecisionReason *string        `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]any `json:"updatedInput,omitempty"`
	AdditionalContext        *string        `json:"additionalContext,omitempty"`
}

// EventName implements SpecificOutput.
func (*PreToolUseSpecificOutput) EventName() Event { return EventPreToolUse }

// PostToolUseSpecificOutput adds context after a tool call.
type PostToolUseSpecificOutput struct {
	AdditionalContext    *string `json:"additionalContext,omitempty"`
	UpdatedMCPToolOutput any     `json:"updatedMCPToolOutput,omitempty"` //nolint:tagliatelle // wire uses MCP acronym
}

// EventName implements SpecificOutput.
func (*PostToolUseSpecificOutput) EventName() Event { return EventPostToolUse }

// PostToolUseFailureSpecificOutput adds context after a failed tool call.
type PostToolUseFailureSpecificOutput struct {
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// EventName implements SpecificOutput.
func (*PostToolUseFailureSpecificOutput) EventName() Event { return EventPostToolUseFailure }

// UserPromptSubmitSpecificOutput adds context to a submitted prompt.
type UserPromptSubmitSpecificOutput struct {
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// EventName implements SpecificOutput.
func (*UserPromptSubmitSpecificOutput) EventName() Event { return EventUserPromptSubmit }

// SubagentStartSpecificOutput adds context to a starting subagent.
type SubagentStartSpecificOutput struct {
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// EventName implements SpecificOutput.
func (*SubagentStartSpecificOutput) EventName() Event { return EventSubagentStart }

// NotificationSpecificOutput adds context to a notification.
type NotificationSpecificOutput struct {
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// EventName implements SpecificOutput.
func (*NotificationSpecificOutput) EventName() Event { return EventNotification }

// PermissionRequestSpecificOutput answers a permission dialog.
type PermissionRequestSpecificOutput struct {
	Decision map[string]any `json:"decision,omitempty"`
}

// EventName implements SpecificOutput.
func (*PermissionRequestSpecificOutput) EventName() Event { return EventPermissionRequest }

// Encode converts a callback output into the wire payload of a control response.
// A nil output encodes as {"continue": true}.
func Encode(output JSONOutput) (map[string]any, error) {
	switch o := output.(type) {
	case nil:
		return map[string]any{"continue": true}, nil

	case *AsyncJSONOutput:
		return toMap(o)

	case *SyncJSONOutput:
		if o == nil {
			return map[string]any{"continue": true}, nil
		}

		result, err := toMap(o)
		if err != nil {
			return nil, err
		}

		if _, ok := result["continue"]; !ok {
			result["continue"] = true
		}

		if o.HookSpecificOutput != nil {
			specific, ok := result["hookSpecificOutput"].(map[string]any)
			if ok {
				specific["hookEventName"] = string(o.HookSpecificOutput.EventName())
			}
		}

		return result, nil

	default:
		return nil, fmt.Errorf("unsupported hook output type %T", output)
	}
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode hook output: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode hook output: %w", err)
	}

	return result, nil
}
