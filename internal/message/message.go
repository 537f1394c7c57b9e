package message

// Message types as they appear in the record "type" field.
const (
	TypeUser        = "user"
	TypeAssistant   = "assistant"
	TypeSystem      = "system"
	TypeResult      = "result"
	TypeStreamEvent = "stream_event"
)

// Message is one typed conversation message.
// Use a type switch to reach the concrete type.
type Message interface {
	MessageType() string
}

// Compile-time verification that all message types implement Message.
var (
	_ Message = (*UserMessage)(nil)
	_ Message = (*AssistantMessage)(nil)
	_ Message = (*SystemMessage)(nil)
	_ Message = (*ResultMessage)(nil)
	_ Message = (*StreamEvent)(nil)
)

// UserMessage is a user turn echoed back by the assistant process, including
// tool results.
type UserMessage struct {
	Content         Content
	UUID            *string
	ParentToolUseID *string
	ToolUseResult   any
}

// MessageType implements the Message interface.
func (m *UserMessage) MessageType() string { return TypeUser }

// AssistantMessage is a turn produced by the assistant.
type AssistantMessage struct {
	Content         Content
	Model           string
	ParentToolUseID *string
	Error           *AssistantMessageError
}

// MessageType implements the Message interface.
func (m *AssistantMessage) MessageType() string { return TypeAssistant }

// AssistantMessageError classifies an assistant turn that failed upstream.
type AssistantMessageError string

const (
	// AssistantMessageErrorAuthFailed indicates authentication failure.
	AssistantMessageErrorAuthFailed AssistantMessageError = "authentication_failed"
	// AssistantMessageErrorBilling indicates a billing error.
	AssistantMessageErrorBilling AssistantMessageError = "billing_error"
	// AssistantMessageErrorRateLimit indicates rate limiting.
	AssistantMessageErrorRateLimit AssistantMessageError = "rate_limit"
	// AssistantMessageErrorInvalidReq indicates an invalid request.
	AssistantMessageErrorInvalidReq AssistantMessageError = "invalid_request"
	// AssistantMessageErrorServer indicates a server error.
	AssistantMessageErrorServer AssistantMessageError = "server_error"
	// AssistantMessageErrorUnknown indicates an unknown error.
	AssistantMessageErrorUnknown AssistantMessageError = "unknown"
)

// SystemMessage is a system notice. Data is the full original record.
type SystemMessage struct {
	Subtype string
	Data    map[string]any
}

// MessageType implements the Message interface.
func (m *SystemMessage) MessageType() string { return TypeSystem }

// ResultMessage closes one conversation turn.
type ResultMessage struct {
	Subtype          string
	DurationMs       int
	DurationAPIMs    int
	IsError          bool
	NumTurns         int
	SessionID        string
	TotalCostUSD     *float64
	Usage            map[string]any
	Result           *string
	StructuredOutput any
}

// MessageType implements the Message interface.
func (m *ResultMessage) MessageType() string { return TypeResult }

// StreamEvent wraps a raw partial-output event.
type StreamEvent struct {
	UUID            string
	SessionID       string
	Event           map[string]any
	ParentToolUseID *string
}

// MessageType implements the Message interface.
func (m *StreamEvent) MessageType() string { return TypeStreamEvent }
