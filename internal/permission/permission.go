// Package permission defines tool permission callbacks and their wire encoding.
package permission

import (
	"context"
	"encoding/json"
	"fmt"
)

// Mode is a permission handling mode of the assistant process.
type Mode string

const (
	// ModeDefault uses standard permission prompts.
	ModeDefault Mode = "default"
	// ModeAcceptEdits automatically accepts file edits.
	ModeAcceptEdits Mode = "acceptEdits"
	// ModePlan enables plan mode.
	ModePlan Mode = "plan"
	// ModeBypassPermissions bypasses all permission checks.
	ModeBypassPermissions Mode = "bypassPermissions"
)

// UpdateType is the kind of permission update.
type UpdateType string

const (
	UpdateTypeAddRules          UpdateType = "addRules"
	UpdateTypeReplaceRules      UpdateType = "replaceRules"
	UpdateTypeRemoveRules       UpdateType = "removeRules"
	UpdateTypeSetMode           UpdateType = "setMode"
	UpdateTypeAddDirectories    UpdateType = "addDirectories"
	UpdateTypeRemoveDirectories UpdateType = "removeDirectories"
)

// UpdateDestination is where a permission update is persisted.
type UpdateDestination string

const (
	UpdateDestUserSettings    UpdateDestination = "userSettings"
	UpdateDestProjectSettings UpdateDestination = "projectSettings"
	UpdateDestLocalSettings   UpdateDestination = "localSettings"
	UpdateDestSession         UpdateDestination = "session"
)

// Behavior is the outcome a permission rule applies.
type Behavior string

const (
	BehaviorAllow Behavior = "allow"
	BehaviorDeny  Behavior = "deny"
	BehaviorAsk   Behavior = "ask"
)

// RuleValue is a single permission rule.
type RuleValue struct {
	ToolName    string  `json:"toolName"`
	RuleContent *string `json:"ruleContent,omitempty"`
}

// Update is a permission change suggested by the assistant process or
// requested by a callback.
type Update struct {
	Type        UpdateType         `json:"type"`
	Rules       []*RuleValue       `json:"rules,omitempty"`
	Behavior    *Behavior          `json:"behavior,omitempty"`
	Mode        *Mode              `json:"mode,omitempty"`
	Directories []string           `json:"directories,omitempty"`
	Destination *UpdateDestination `json:"destination,omitempty"`
}

// Context accompanies a permission check.
type Context struct {
	// Suggestions are updates the assistant process proposes.
	Suggestions []*Update
	// BlockedPath is the path that triggered the check, if any.
	BlockedPath *string
}

// Result is a permission decision: *ResultAllow or *ResultDeny.
type Result interface {
	GetBehavior() Behavior
}

// Compile-time verification that permission result types implement Result.
var (
	_ Result = (*ResultAllow)(nil)
	_ Result = (*ResultDeny)(nil)
)

// ResultAllow lets the tool call proceed, optionally with rewritten input.
type ResultAllow struct {
	UpdatedInput       map[string]any `json:"updatedInput,omitempty"`
	UpdatedPermissions []*Update      `json:"updatedPermissions,omitempty"`
}

// GetBehavior implements Result.
func (*ResultAllow) GetBehavior() Behavior { return BehaviorAllow }

// ResultDeny rejects the tool call.
type ResultDeny struct {
	Message   string `json:"message"`
	Interrupt bool   `json:"interrupt,omitempty"`
}

// GetBehavior implements Result.
func (*ResultDeny) GetBehavior() Behavior { return BehaviorDeny }

// Callback decides whether a tool call may run.
type Callback func(
	ctx context.Context,
	toolName string,
	input map[string]any,
	permCtx *Context,
) (Result, error)

// Request is a decoded permission check from the assistant process.
//
//nolint:tagliatelle // wire format uses snake_case
type Request struct {
	ToolName              string         `json:"tool_name"`
	Input                 map[string]any `json:"input"`
	PermissionSuggestions []*Update      `json:"permission_suggestions"`
	Suggestions           []*Update      `json:"suggestions"`
	BlockedPath           *string        `json:"blocked_path"`
}

// DecodeRequest decodes the payload of a permission check.
func DecodeRequest(payload map[string]any) (*Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode permission request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode permission request: %w", err)
	}

	if req.ToolName == "" {
		return nil, fmt.Errorf("permission request is missing tool_name")
	}

	return &req, nil
}

// Context returns the callback context for the request.
func (r *Request) Context() *Context {
	suggestions := r.PermissionSuggestions
	if suggestions == nil {
		suggestions = r.Suggestions
	}

	return &Context{Suggestions: suggestions, BlockedPath: r.BlockedPath}
}

// Encode converts a decision into the wire payload of a control response.
func Encode(result Result) (map[string]any, error) {
	var body any

	switch r := result.(type) {
	case *ResultAllow:
		if r == nil {
			r = &ResultAllow{}
		}

		body = r
	case *ResultDeny:
		if r == nil {
			return nil, fmt.Errorf("permission callback returned a nil deny result")
		}

		body = r
	default:
		return nil, fmt.Errorf("permission callback must return *ResultAllow or *ResultDeny, got %T", result)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode permission result: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode permission result: %w", err)
	}

	out["behavior"] = string(result.GetBehavior())

	return out, nil
}
