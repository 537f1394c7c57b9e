package agentbridge

import (
	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/hook"
	"github.com/wagiedev/agentbridge/internal/message"
	"github.com/wagiedev/agentbridge/internal/permission"
)

// Re-export types from internal packages

// ===== Options =====

// Options configures a session. Build it with the With* options.
type Options = config.Options

// Prompt is the caller's input: a fixed string or a stream of user records.
type Prompt = config.Prompt

// ===== Messages =====

// Message is one validated conversation message.
// Use a type switch to reach the concrete type.
type Message = message.Message

// UserMessage is a user turn echoed back by the assistant process.
type UserMessage = message.UserMessage

// AssistantMessage is a reply from the assistant.
type AssistantMessage = message.AssistantMessage

// AssistantMessageError classifies an assistant turn that failed upstream.
type AssistantMessageError = message.AssistantMessageError

const (
	AssistantMessageErrorAuthFailed = message.AssistantMessageErrorAuthFailed
	AssistantMessageErrorBilling    = message.AssistantMessageErrorBilling
	AssistantMessageErrorRateLimit  = message.AssistantMessageErrorRateLimit
	AssistantMessageErrorInvalidReq = message.AssistantMessageErrorInvalidReq
	AssistantMessageErrorServer     = message.AssistantMessageErrorServer
	AssistantMessageErrorUnknown    = message.AssistantMessageErrorUnknown
)

// SystemMessage is a system notice; Data holds the raw record.
type SystemMessage = message.SystemMessage

// ResultMessage ends a turn with cost and usage figures.
type ResultMessage = message.ResultMessage

// StreamEvent is a partial-message event.
type StreamEvent = message.StreamEvent

// Content is message content: a plain string or a list of blocks.
type Content = message.Content

// ContentBlock is one block of message content.
type ContentBlock = message.ContentBlock

// TextBlock contains plain text.
type TextBlock = message.TextBlock

// ThinkingBlock contains the assistant's reasoning.
type ThinkingBlock = message.ThinkingBlock

// ToolUseBlock is a tool invocation requested by the assistant.
type ToolUseBlock = message.ToolUseBlock

// ToolResultBlock is the outcome of a tool invocation.
type ToolResultBlock = message.ToolResultBlock

// InputRecord is a user turn written to the assistant process.
type InputRecord = message.InputRecord

// ===== Hooks =====

// HookEvent names a point in the assistant's lifecycle where hooks run.
type HookEvent = hook.Event

const (
	HookEventPreToolUse         = hook.EventPreToolUse
	HookEventPostToolUse        = hook.EventPostToolUse
	HookEventPostToolUseFailure = hook.EventPostToolUseFailure
	HookEventUserPromptSubmit   = hook.EventUserPromptSubmit
	HookEventStop               = hook.EventStop
	HookEventSubagentStart      = hook.EventSubagentStart
	HookEventSubagentStop       = hook.EventSubagentStop
	HookEventPreCompact         = hook.EventPreCompact
	HookEventNotification       = hook.EventNotification
	HookEventPermissionRequest  = hook.EventPermissionRequest
)

// HookCallback is the function signature for hook callbacks.
type HookCallback = hook.Callback

// HookMatcher binds callbacks to an event, optionally filtered by tool name.
type HookMatcher = hook.Matcher

// HookContext describes the invocation a callback is serving.
type HookContext = hook.Context

// HookInput is the typed input passed to a hook callback.
type HookInput = hook.Input

// Hook input types, one per event.
type (
	BaseHookInput               = hook.BaseInput
	PreToolUseHookInput         = hook.PreToolUseInput
	PostToolUseHookInput        = hook.PostToolUseInput
	PostToolUseFailureHookInput = hook.PostToolUseFailureInput
	UserPromptSubmitHookInput   = hook.UserPromptSubmitInput
	StopHookInput               = hook.StopInput
	SubagentStartHookInput      = hook.SubagentStartInput
	SubagentStopHookInput       = hook.SubagentStopInput
	PreCompactHookInput         = hook.PreCompactInput
	NotificationHookInput       = hook.NotificationInput
	PermissionRequestHookInput  = hook.PermissionRequestInput
	GenericHookInput            = hook.GenericInput
)

// HookJSONOutput is a hook callback's result.
type HookJSONOutput = hook.JSONOutput

// SyncHookJSONOutput is a decision for the current invocation.
type SyncHookJSONOutput = hook.SyncJSONOutput

// AsyncHookJSONOutput defers the decision.
type AsyncHookJSONOutput = hook.AsyncJSONOutput

// Event-specific hook outputs.
type (
	HookSpecificOutput                 = hook.SpecificOutput
	PreToolUseHookSpecificOutput       = hook.PreToolUseSpecificOutput
	PostToolUseHookSpecificOutput      = hook.PostToolUseSpecificOutput
	PostToolUseFailureSpecificOutput   = hook.PostToolUseFailureSpecificOutput
	UserPromptSubmitHookSpecificOutput = hook.UserPromptSubmitSpecificOutput
	SubagentStartHookSpecificOutput    = hook.SubagentStartSpecificOutput
	NotificationHookSpecificOutput     = hook.NotificationSpecificOutput
	PermissionRequestSpecificOutput    = hook.PermissionRequestSpecificOutput
)

// ===== Permissions =====

// PermissionMode is a permission handling mode of the assistant process.
type PermissionMode = permission.Mode

const (
	PermissionModeDefault           = permission.ModeDefault
	PermissionModeAcceptEdits       = permission.ModeAcceptEdits
	PermissionModePlan              = permission.ModePlan
	PermissionModeBypassPermissions = permission.ModeBypassPermissions
)

// CanUseToolCallback decides whether a tool call may run.
type CanUseToolCallback = permission.Callback

// ToolPermissionContext accompanies a permission check.
type ToolPermissionContext = permission.Context

// PermissionResult is *PermissionResultAllow or *PermissionResultDeny.
type PermissionResult = permission.Result

// PermissionResultAllow lets the tool call proceed.
type PermissionResultAllow = permission.ResultAllow

// PermissionResultDeny rejects the tool call.
type PermissionResultDeny = permission.ResultDeny

// PermissionUpdate is a permission change suggested or requested.
type PermissionUpdate = permission.Update

// PermissionRuleValue is a single permission rule.
type PermissionRuleValue = permission.RuleValue

// PermissionUpdateType is the kind of permission update.
type PermissionUpdateType = permission.UpdateType

const (
	PermissionUpdateTypeAddRules          = permission.UpdateTypeAddRules
	PermissionUpdateTypeReplaceRules      = permission.UpdateTypeReplaceRules
	PermissionUpdateTypeRemoveRules       = permission.UpdateTypeRemoveRules
	PermissionUpdateTypeSetMode           = permission.UpdateTypeSetMode
	PermissionUpdateTypeAddDirectories    = permission.UpdateTypeAddDirectories
	PermissionUpdateTypeRemoveDirectories = permission.UpdateTypeRemoveDirectories
)

// PermissionUpdateDestination is where a permission update is persisted.
type PermissionUpdateDestination = permission.UpdateDestination

const (
	PermissionUpdateDestUserSettings    = permission.UpdateDestUserSettings
	PermissionUpdateDestProjectSettings = permission.UpdateDestProjectSettings
	PermissionUpdateDestLocalSettings   = permission.UpdateDestLocalSettings
	PermissionUpdateDestSession         = permission.UpdateDestSession
)

// PermissionBehavior is the outcome a permission rule applies.
type PermissionBehavior = permission.Behavior

const (
	PermissionBehaviorAllow = permission.BehaviorAllow
	PermissionBehaviorDeny  = permission.BehaviorDeny
	PermissionBehaviorAsk   = permission.BehaviorAsk
)
