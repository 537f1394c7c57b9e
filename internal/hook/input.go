package hook

import (
	"encoding/json"
	"fmt"
)

// Input is the typed payload passed to a hook callback.
// Use a type switch on the concrete type for event-specific fields.
type Input interface {
	EventName() Event
	Common() *BaseInput
}

// Compile-time verification that all hook input types implement Input.
var (
	_ Input = (*PreToolUseInput)(nil)
	_ Input = (*PostToolUseInput)(nil)
	_ Input = (*PostToolUseFailureInput)(nil)
	_ Input = (*UserPromptSubmitInput)(nil)
	_ Input = (*StopInput)(nil)
	_ Input = (*SubagentStartInput)(nil)
	_ Input = (*SubagentStopInput)(nil)
	_ Input = (*PreCompactInput)(nil)
	_ Input = (*NotificationInput)(nil)
	_ Input = (*PermissionRequestInput)(nil)
	_ Input = (*GenericInput)(nil)
)

// BaseInput holds the fields every hook input carries.
//
//nolint:tagliatelle // wire format uses snake_case
type BaseInput struct {
	SessionID      string  `json:"session_id"`
	TranscriptPath string  `json:"transcript_path"`
	Cwd            string  `json:"cwd"`
	PermissionMode *string `json:"permission_mode,omitempty"`
}

// Common implements Input.
func (b *BaseInput) Common() *BaseInput { return b }

// PreToolUseInput is the input for PreToolUse hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type PreToolUseInput struct {
	BaseInput
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	ToolUseID string         `json:"tool_use_id"`
}

// EventName implements Input.
func (*PreToolUseInput) EventName() Event { return EventPreToolUse }

// PostToolUseInput is the input for PostToolUse hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type PostToolUseInput struct {
	BaseInput
	ToolName     string         `json:"tool_name"`
	ToolInput    map[string]any `json:"tool_input"`
	ToolUseID    string         `json:"tool_use_id"`
	ToolResponse any            `json:"tool_response"`
}

// EventName implements Input.
func (*PostToolUseInput) EventName() Event { return EventPostToolUse }

// PostToolUseFailureInput is the input for PostToolUseFailure hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type PostToolUseFailureInput struct {
	BaseInput
	ToolName    string         `json:"tool_name"`
	ToolInput   map[string]any `json:"tool_input"`
	ToolUseID   string         `json:"tool_use_id"`
	Error       string         `json:"error"`
	IsInterrupt *bool          `json:"is_interrupt,omitempty"`
}

// EventName implements Input.
func (*PostToolUseFailureInput) EventName() Event { return EventPostToolUseFailure }

// UserPromptSubmitInput is the input for UserPromptSubmit hooks.
type UserPromptSubmitInput struct {
	BaseInput
	Prompt string `json:"prompt"`
}

// EventName implements Input.
func (*UserPromptSubmitInput) EventName() Event { return EventUserPromptSubmit }

// StopInput is the input for Stop hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type StopInput struct {
	BaseInput
	StopHookActive bool `json:"stop_hook_active"`
}

// EventName implements Input.
func (*StopInput) EventName() Event { return EventStop }

// SubagentStartInput is the input for SubagentStart hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type SubagentStartInput struct {
	BaseInput
	AgentID   string `json:"agent_id"`
	AgentType string `json:"agent_type"`
}

// EventName implements Input.
func (*SubagentStartInput) EventName() Event { return EventSubagentStart }

// SubagentStopInput is the input for SubagentStop hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type SubagentStopInput struct {
	BaseInput
	StopHookActive      bool   `json:"stop_hook_active"`
	AgentID             string `json:"agent_id"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
	AgentType           string `json:"agent_type"`
}

// EventName implements Input.
func (*SubagentStopInput) EventName() Event { return EventSubagentStop }

// PreCompactInput is the input for PreCompact hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type PreCompactInput struct {
	BaseInput
	Trigger            string  `json:"trigger"` // "manual" or "auto"
	CustomInstructions *string `json:"custom_instructions,omitempty"`
}

// EventName implements Input.
func (*PreCompactInput) EventName() Event { return EventPreCompact }

// NotificationInput is the input for Notification hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type NotificationInput struct {
	BaseInput
	Message          string  `json:"message"`
	Title            *string `json:"title,omitempty"`
	NotificationType string  `json:"notification_type"`
}

// EventName implements Input.
func (*NotificationInput) EventName() Event { return EventNotification }

// PermissionRequestInput is the input for PermissionRequest hooks.
//
//nolint:tagliatelle // wire format uses snake_case
type PermissionRequestInput struct {
	BaseInput
	ToolName              string         `json:"tool_name"`
	ToolInput             map[string]any `json:"tool_input"`
	PermissionSuggestions []any          `json:"permission_suggestions"`
}

// EventName implements Input.
func (*PermissionRequestInput) EventName() Event { return EventPermissionRequest }

// GenericInput carries an event this package has no dedicated type for.
// Raw is the full input object.
type GenericInput struct {
	BaseInput
	Event Event          `json:"-"`
	Raw   map[string]any `json:"-"`
}

// EventName implements Input.
func (g *GenericInput) EventName() Event { return g.Event }

// ParseInput decodes a raw hook input object into its typed form, selected by
// the hook_event_name field.
func ParseInput(raw map[string]any) (Input, error) {
	if raw == nil {
		return nil, fmt.Errorf("hook input is missing")
	}

	name, _ := raw["hook_event_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("hook input is missing hook_event_name")
	}

	var input Input

	switch Event(name) {
	case EventPreToolUse:
		input = &PreToolUseInput{}
	case EventPostToolUse:
		input = &PostToolUseInput{}
	case EventPostToolUseFailure:
		input = &PostToolUseFailureInput{}
	case EventUserPromptSubmit:
		input = &UserPromptSubmitInput{}
	case EventStop:
		input = &StopInput{}
	case EventSubagentStart:
		input = &SubagentStartInput{}
	case EventSubagentStop:
		input = &SubagentStopInput{}
	case EventPreCompact:
		input = &PreCompactInput{}
	case EventNotification:
		input = &NotificationInput{}
	case EventPermissionRequest:
		input = &PermissionRequestInput{}
	default:
		input = &GenericInput{Event: Event(name), Raw: raw}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode hook input: %w", err)
	}

	if err := json.Unmarshal(data, input); err != nil {
		return nil, fmt.Errorf("decode %s hook input: %w", name, err)
	}

	return input, nil
}

// subject returns the value a Matcher is tested against for an invocation.
func subject(raw map[string]any) string {
	for _, key := range []string{"tool_name", "trigger", "notification_type", "agent_type"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}

	return ""
}
