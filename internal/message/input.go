package message

// InputMessage is the body of an outbound user record.
type InputMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// InputRecord is a user turn written to the assistant process in streaming mode.
//
//nolint:tagliatelle // wire format uses snake_case
type InputRecord struct {
	Type            string       `json:"type"`
	Message         InputMessage `json:"message"`
	ParentToolUseID *string      `json:"parent_tool_use_id,omitempty"`
	SessionID       string       `json:"session_id,omitempty"`
}

// NewUserInput creates a user input record carrying text.
func NewUserInput(text string) InputRecord {
	return InputRecord{
		Type:    TypeUser,
		Message: InputMessage{Role: "user", Content: TextContent(text)},
	}
}

// NewUserBlocksInput creates a user input record carrying content blocks.
func NewUserBlocksInput(blocks ...ContentBlock) InputRecord {
	return InputRecord{
		Type:    TypeUser,
		Message: InputMessage{Role: "user", Content: BlockContent(blocks...)},
	}
}
