package message

import (
	"fmt"
	"math"

	"github.com/wagiedev/agentbridge/internal/errors"
)

// Validate converts one raw conversation record into a typed Message.
//
// Required fields must be present: a missing one is reported as a
// *errors.MessageParseError naming the field and carrying the record, never
// filled with a default. An unrecognized top-level type fails with
// errors.ErrUnknownMessageType. Content blocks of an unrecognized type are
// skipped.
//
// Validate has no side effects and is safe for concurrent use.
func Validate(record map[string]any) (Message, error) {
	v := &validator{record: record}

	msgType, err := requireField[string](v, record, "", "type")
	if err != nil {
		return nil, err
	}

	v.msgType = msgType

	switch msgType {
	case TypeUser:
		return typed(v.user())
	case TypeAssistant:
		return typed(v.assistant())
	case TypeSystem:
		return typed(v.system())
	case TypeResult:
		return typed(v.result())
	case TypeStreamEvent:
		return typed(v.streamEvent())
	default:
		v.msgType = ""

		return nil, v.fail("type", fmt.Errorf("%w: %q", errors.ErrUnknownMessageType, msgType))
	}
}

// typed keeps a nil concrete pointer from becoming a non-nil Message.
func typed[M Message](m M, err error) (Message, error) {
	if err != nil {
		return nil, err
	}

	return m, nil
}

// validator carries the record being validated so failures can reference it.
type validator struct {
	msgType string
	record  map[string]any
}

func (v *validator) fail(field string, err error) error {
	return &errors.MessageParseError{
		MessageType: v.msgType,
		Field:       field,
		Err:         err,
		Data:        v.record,
	}
}

func (v *validator) user() (*UserMessage, error) {
	body, err := requireField[map[string]any](v, v.record, "", "message")
	if err != nil {
		return nil, err
	}

	content, err := v.content(body, "message", "content")
	if err != nil {
		return nil, err
	}

	msg := &UserMessage{Content: content, ToolUseResult: v.record["tool_use_result"]}

	if msg.UUID, err = optionalString(v, v.record, "", "uuid"); err != nil {
		return nil, err
	}

	if msg.ParentToolUseID, err = optionalString(v, v.record, "", "parent_tool_use_id"); err != nil {
		return nil, err
	}

	return msg, nil
}

func (v *validator) assistant() (*AssistantMessage, error) {
	body, err := requireField[map[string]any](v, v.record, "", "message")
	if err != nil {
		return nil, err
	}

	content, err := v.content(body, "message", "content")
	if err != nil {
		return nil, err
	}

	model, err := requireField[string](v, body, "message", "model")
	if err != nil {
		return nil, err
	}

	msg := &AssistantMessage{Content: content, Model: model}

	if msg.ParentToolUseID, err = optionalString(v, v.record, "", "parent_tool_use_id"); err != nil {
		return nil, err
	}

	errValue, err := optionalString(v, v.record, "", "error")
	if err != nil {
		return nil, err
	}

	if errValue != nil {
		msg.Error = new(AssistantMessageError(*errValue))
	}

	return msg, nil
}

func (v *validator) system() (*SystemMessage, error) {
	subtype, err := requireField[string](v, v.record, "", "subtype")
	if err != nil {
		return nil, err
	}

	return &SystemMessage{Subtype: subtype, Data: v.record}, nil
}

func (v *validator) result() (*ResultMessage, error) {
	var (
		msg ResultMessage
		err error
	)

	if msg.Subtype, err = requireField[string](v, v.record, "", "subtype"); err != nil {
		return nil, err
	}

	if msg.DurationMs, err = requireInt(v, v.record, "duration_ms"); err != nil {
		return nil, err
	}

	if msg.DurationAPIMs, err = requireInt(v, v.record, "duration_api_ms"); err != nil {
		return nil, err
	}

	if msg.IsError, err = requireField[bool](v, v.record, "", "is_error"); err != nil {
		return nil, err
	}

	if msg.NumTurns, err = requireInt(v, v.record, "num_turns"); err != nil {
		return nil, err
	}

	if msg.SessionID, err = requireField[string](v, v.record, "", "session_id"); err != nil {
		return nil, err
	}

	cost, ok, err := optionalField[float64](v, v.record, "", "total_cost_usd")
	if err != nil {
		return nil, err
	}

	if ok {
		msg.TotalCostUSD = &cost
	}

	if msg.Usage, _, err = optionalField[map[string]any](v, v.record, "", "usage"); err != nil {
		return nil, err
	}

	if msg.Result, err = optionalString(v, v.record, "", "result"); err != nil {
		return nil, err
	}

	msg.StructuredOutput = v.record["structured_output"]

	return &msg, nil
}

func (v *validator) streamEvent() (*StreamEvent, error) {
	var (
		msg StreamEvent
		err error
	)

	if msg.UUID, err = requireField[string](v, v.record, "", "uuid"); err != nil {
		return nil, err
	}

	if msg.SessionID, err = requireField[string](v, v.record, "", "session_id"); err != nil {
		return nil, err
	}

	if msg.Event, err = requireField[map[string]any](v, v.record, "", "event"); err != nil {
		return nil, err
	}

	if msg.ParentToolUseID, err = optionalString(v, v.record, "", "parent_tool_use_id"); err != nil {
		return nil, err
	}

	return &msg, nil
}

// content reads a required string-or-blocks field.
func (v *validator) content(obj map[string]any, path, key string) (Content, error) {
	field := fieldPath(path, key)

	raw, ok := obj[key]
	if !ok || raw == nil {
		return Content{}, v.fail(field, errors.ErrMissingField)
	}

	switch c := raw.(type) {
	case string:
		return TextContent(c), nil
	case []any:
		blocks, err := v.blocks(c, field)
		if err != nil {
			return Content{}, err
		}

		return BlockContent(blocks...), nil
	default:
		return Content{}, v.fail(field, fmt.Errorf("%w: expected string or array, got %s", errors.ErrInvalidField, kindOf(raw)))
	}
}

func (v *validator) blocks(items []any, path string) ([]ContentBlock, error) {
	blocks := make([]ContentBlock, 0, len(items))

	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)

		obj, ok := item.(map[string]any)
		if !ok {
			return nil, v.fail(at, fmt.Errorf("%w: expected object, got %s", errors.ErrInvalidField, kindOf(item)))
		}

		block, err := v.block(obj, at)
		if err != nil {
			return nil, err
		}

		if block != nil {
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

// block returns nil, nil for block types it does not recognize.
func (v *validator) block(obj map[string]any, path string) (ContentBlock, error) {
	blockType, err := requireField[string](v, obj, path, "type")
	if err != nil {
		return nil, err
	}

	switch blockType {
	case BlockTypeText:
		text, err := requireField[string](v, obj, path, "text")
		if err != nil {
			return nil, err
		}

		return &TextBlock{Type: BlockTypeText, Text: text}, nil

	case BlockTypeThinking:
		thinking, err := requireField[string](v, obj, path, "thinking")
		if err != nil {
			return nil, err
		}

		signature, err := requireField[string](v, obj, path, "signature")
		if err != nil {
			return nil, err
		}

		return &ThinkingBlock{Type: BlockTypeThinking, Thinking: thinking, Signature: signature}, nil

	case BlockTypeToolUse:
		block := &ToolUseBlock{Type: BlockTypeToolUse}

		if block.ID, err = requireField[string](v, obj, path, "id"); err != nil {
			return nil, err
		}

		if block.Name, err = requireField[string](v, obj, path, "name"); err != nil {
			return nil, err
		}

		if block.Input, err = requireField[map[string]any](v, obj, path, "input"); err != nil {
			return nil, err
		}

		return block, nil

	case BlockTypeToolResult:
		return v.toolResult(obj, path)

	default:
		return nil, nil
	}
}

func (v *validator) toolResult(obj map[string]any, path string) (*ToolResultBlock, error) {
	toolUseID, err := requireField[string](v, obj, path, "tool_use_id")
	if err != nil {
		return nil, err
	}

	block := &ToolResultBlock{Type: BlockTypeToolResult, ToolUseID: toolUseID}

	isError, ok, err := optionalField[bool](v, obj, path, "is_error")
	if err != nil {
		return nil, err
	}

	if ok {
		block.IsError = &isError
	}

	block.Content = obj["content"]

	return block, nil
}

func requireField[T any](v *validator, obj map[string]any, path, key string) (T, error) {
	value, ok, err := optionalField[T](v, obj, path, key)
	if err != nil {
		return value, err
	}

	if !ok {
		return value, v.fail(fieldPath(path, key), errors.ErrMissingField)
	}

	return value, nil
}

// optionalField treats an explicit JSON null the same as an absent key.
func optionalField[T any](v *validator, obj map[string]any, path, key string) (T, bool, error) {
	var zero T

	raw, ok := obj[key]
	if !ok || raw == nil {
		return zero, false, nil
	}

	value, ok := raw.(T)
	if !ok {
		return zero, false, v.fail(
			fieldPath(path, key),
			fmt.Errorf("%w: expected %s, got %s", errors.ErrInvalidField, kindOf(zero), kindOf(raw)),
		)
	}

	return value, true, nil
}

func optionalString(v *validator, obj map[string]any, path, key string) (*string, error) {
	s, ok, err := optionalField[string](v, obj, path, key)
	if err != nil || !ok {
		return nil, err
	}

	return &s, nil
}

func requireInt(v *validator, obj map[string]any, key string) (int, error) {
	f, err := requireField[float64](v, obj, "", key)
	if err != nil {
		return 0, err
	}

	if f != math.Trunc(f) {
		return 0, v.fail(key, fmt.Errorf("%w: expected integer, got %v", errors.ErrInvalidField, f))
	}

	return int(f), nil
}

func fieldPath(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
