// Package hook defines hook events, typed hook inputs and outputs, and the
// registry that routes hook invocations from the assistant process to
// registered callbacks.
package hook

import "context"

// Event names a point in the assistant's lifecycle where hooks run.
type Event string

const (
	// EventPreToolUse runs before a tool is used.
	EventPreToolUse Event = "PreToolUse"
	// EventPostToolUse runs after a tool is used.
	EventPostToolUse Event = "PostToolUse"
	// EventPostToolUseFailure runs after a tool use fails.
	EventPostToolUseFailure Event = "PostToolUseFailure"
	// EventUserPromptSubmit runs when a user prompt is submitted.
	EventUserPromptSubmit Event = "UserPromptSubmit"
	// EventStop runs when the assistant finishes responding.
	EventStop Event = "Stop"
	// EventSubagentStart runs when a subagent starts.
	EventSubagentStart Event = "SubagentStart"
	// EventSubagentStop runs when a subagent finishes.
	EventSubagentStop Event = "SubagentStop"
	// EventPreCompact runs before the transcript is compacted.
	EventPreCompact Event = "PreCompact"
	// EventNotification runs when the assistant emits a notification.
	EventNotification Event = "Notification"
	// EventPermissionRequest runs when a permission dialog would be shown.
	EventPermissionRequest Event = "PermissionRequest"
)

// Context describes the invocation a callback is serving.
type Context struct {
	// CallbackID is the wire id the assistant process used, if any.
	CallbackID string
	// Event is the event that fired.
	Event Event
}

// Callback is the function signature for hook callbacks.
//
// ctx is cancelled when the session closes or the assistant process cancels
// the invocation. Returning a nil output means "continue".
type Callback func(
	ctx context.Context,
	input Input,
	toolUseID *string,
	hookCtx *Context,
) (JSONOutput, error)

// Matcher binds callbacks to an event, optionally filtered by subject.
type Matcher struct {
	// Matcher is a tool name like "Bash" or a pipe-separated list like
	// "Write|Edit". Nil, empty or "*" matches every subject.
	Matcher *string
	// Hooks run in order for every matching invocation.
	Hooks []Callback
	// Timeout in seconds, forwarded to the assistant process.
	Timeout *float64
}
