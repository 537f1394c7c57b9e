package message

import (
	"encoding/json"
	"errors"
	"maps"
	"testing"

	bridgeerrors "github.com/wagiedev/agentbridge/internal/errors"

	"github.com/stretchr/testify/require"
)

func assistantRecord() map[string]any {
	return map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": "hello"},
				map[string]any{"type": "thinking", "thinking": "hmm", "signature": "sig"},
				map[string]any{
					"type":  "tool_use",
					"id":    "toolu_1",
					"name":  "Read",
					"input": map[string]any{"path": "/tmp/a"},
				},
			},
			"model": "claude-sonnet-4-5",
		},
	}
}

func resultRecord() map[string]any {
	return map[string]any{
		"type":            "result",
		"subtype":         "success",
		"duration_ms":     float64(1200),
		"duration_api_ms": float64(900),
		"is_error":        false,
		"num_turns":       float64(2),
		"session_id":      "sess-1",
		"total_cost_usd":  0.0123,
		"usage":           map[string]any{"input_tokens": float64(10), "output_tokens": float64(5)},
		"result":          "done",
	}
}

func TestValidateAssistantMessage(t *testing.T) {
	tests := []struct {
		name           string
		data           map[string]any
		wantErrorValue *AssistantMessageError
		wantContentLen int
		wantToolUseID  *string
	}{
		{
			name:           "all block kinds",
			data:           assistantRecord(),
			wantContentLen: 3,
		},
		{
			name: "error at top level",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": []any{},
					"model":   "claude-sonnet-4-5",
					"error":   "ignored",
				},
				"error":              "billing_error",
				"parent_tool_use_id": "tool-123",
			},
			wantErrorValue: new(AssistantMessageErrorBilling),
			wantContentLen: 0,
			wantToolUseID:  new("tool-123"),
		},
		{
			name: "scalar content",
			data: map[string]any{
				"type":    "assistant",
				"message": map[string]any{"content": "plain", "model": "m"},
			},
			wantContentLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Validate(tt.data)
			require.NoError(t, err)

			assistant, ok := msg.(*AssistantMessage)
			require.True(t, ok, "expected *AssistantMessage, got %T", msg)
			require.Len(t, assistant.Content.Blocks(), tt.wantContentLen)

			if tt.wantErrorValue != nil {
				require.NotNil(t, assistant.Error)
				require.Equal(t, *tt.wantErrorValue, *assistant.Error)
			} else {
				require.Nil(t, assistant.Error)
			}

			if tt.wantToolUseID != nil {
				require.NotNil(t, assistant.ParentToolUseID)
				require.Equal(t, *tt.wantToolUseID, *assistant.ParentToolUseID)
			}
		})
	}
}

func TestValidateBlocks(t *testing.T) {
	msg, err := Validate(assistantRecord())
	require.NoError(t, err)

	blocks := msg.(*AssistantMessage).Content.Blocks()

	text, ok := blocks[0].(*TextBlock)
	require.True(t, ok)
	require.Equal(t, "hello", text.Text)

	thinking, ok := blocks[1].(*ThinkingBlock)
	require.True(t, ok)
	require.Equal(t, "hmm", thinking.Thinking)
	require.Equal(t, "sig", thinking.Signature)

	toolUse, ok := blocks[2].(*ToolUseBlock)
	require.True(t, ok)
	require.Equal(t, "toolu_1", toolUse.ID)
	require.Equal(t, "Read", toolUse.Name)
	require.Equal(t, "/tmp/a", toolUse.Input["path"])
}

func TestValidateUserMessage(t *testing.T) {
	t.Run("string content stays scalar", func(t *testing.T) {
		msg, err := Validate(map[string]any{
			"type":    "user",
			"message": map[string]any{"role": "user", "content": "ping"},
			"uuid":    "u-1",
		})
		require.NoError(t, err)

		user := msg.(*UserMessage)
		require.True(t, user.Content.IsString())
		require.Equal(t, "ping", user.Content.String())
		require.Equal(t, "u-1", *user.UUID)
		require.Nil(t, user.ParentToolUseID)
	})

	t.Run("tool result blocks", func(t *testing.T) {
		msg, err := Validate(map[string]any{
			"type": "user",
			"message": map[string]any{
				"content": []any{
					map[string]any{
						"type":        "tool_result",
						"tool_use_id": "toolu_1",
						"content":     "file contents",
						"is_error":    true,
					},
					map[string]any{
						"type":        "tool_result",
						"tool_use_id": "toolu_2",
						"content": []any{
							map[string]any{"type": "text", "text": "a"},
						},
					},
					map[string]any{"type": "tool_result", "tool_use_id": "toolu_3"},
				},
			},
			"parent_tool_use_id": nil,
		})
		require.NoError(t, err)

		blocks := msg.(*UserMessage).Content.Blocks()
		require.Len(t, blocks, 3)

		first := blocks[0].(*ToolResultBlock)
		require.Equal(t, "toolu_1", first.ToolUseID)
		require.NotNil(t, first.IsError)
		require.True(t, *first.IsError)
		require.Equal(t, "file contents", first.Content)

		second := blocks[1].(*ToolResultBlock)
		require.Nil(t, second.IsError)
		require.Equal(t, []any{map[string]any{"type": "text", "text": "a"}}, second.Content)

		third := blocks[2].(*ToolResultBlock)
		require.Nil(t, third.Content)
	})
}

func TestValidateSystemMessage(t *testing.T) {
	record := map[string]any{
		"type":    "system",
		"subtype": "init",
		"tools":   []any{"Read", "Write"},
	}

	msg, err := Validate(record)
	require.NoError(t, err)

	system := msg.(*SystemMessage)
	require.Equal(t, "init", system.Subtype)
	require.Equal(t, record, system.Data)
}

func TestValidateResultMessage(t *testing.T) {
	msg, err := Validate(resultRecord())
	require.NoError(t, err)

	result := msg.(*ResultMessage)
	require.Equal(t, "success", result.Subtype)
	require.Equal(t, 1200, result.DurationMs)
	require.Equal(t, 900, result.DurationAPIMs)
	require.False(t, result.IsError)
	require.Equal(t, 2, result.NumTurns)
	require.Equal(t, "sess-1", result.SessionID)
	require.InDelta(t, 0.0123, *result.TotalCostUSD, 1e-9)
	require.Equal(t, float64(10), result.Usage["input_tokens"])
	require.Equal(t, "done", *result.Result)
}

func TestValidateResultMessage_OptionalFieldsAbsent(t *testing.T) {
	record := resultRecord()
	delete(record, "total_cost_usd")
	delete(record, "usage")
	delete(record, "result")

	msg, err := Validate(record)
	require.NoError(t, err)

	result := msg.(*ResultMessage)
	require.Nil(t, result.TotalCostUSD)
	require.Nil(t, result.Usage)
	require.Nil(t, result.Result)
}

func TestValidateStreamEvent(t *testing.T) {
	msg, err := Validate(map[string]any{
		"type":       "stream_event",
		"uuid":       "evt-1",
		"session_id": "sess-1",
		"event":      map[string]any{"type": "content_block_delta"},
	})
	require.NoError(t, err)

	event := msg.(*StreamEvent)
	require.Equal(t, "evt-1", event.UUID)
	require.Equal(t, "content_block_delta", event.Event["type"])
}

func TestValidateMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		record    func() map[string]any
		drop      func(map[string]any)
		wantField string
	}{
		{
			name:      "assistant message body",
			record:    assistantRecord,
			drop:      func(r map[string]any) { delete(r, "message") },
			wantField: "message",
		},
		{
			name:      "assistant model",
			record:    assistantRecord,
			drop:      func(r map[string]any) { delete(r["message"].(map[string]any), "model") },
			wantField: "message.model",
		},
		{
			name:      "assistant content",
			record:    assistantRecord,
			drop:      func(r map[string]any) { delete(r["message"].(map[string]any), "content") },
			wantField: "message.content",
		},
		{
			name:   "thinking signature",
			record: assistantRecord,
			drop: func(r map[string]any) {
				blocks := r["message"].(map[string]any)["content"].([]any)
				delete(blocks[1].(map[string]any), "signature")
			},
			wantField: "message.content[1].signature",
		},
		{
			name:   "tool use input",
			record: assistantRecord,
			drop: func(r map[string]any) {
				blocks := r["message"].(map[string]any)["content"].([]any)
				delete(blocks[2].(map[string]any), "input")
			},
			wantField: "message.content[2].input",
		},
		{
			name:   "block type",
			record: assistantRecord,
			drop: func(r map[string]any) {
				blocks := r["message"].(map[string]any)["content"].([]any)
				delete(blocks[0].(map[string]any), "type")
			},
			wantField: "message.content[0].type",
		},
		{
			name:      "system subtype",
			record:    func() map[string]any { return map[string]any{"type": "system", "subtype": "init"} },
			drop:      func(r map[string]any) { delete(r, "subtype") },
			wantField: "subtype",
		},
		{
			name: "stream event session",
			record: func() map[string]any {
				return map[string]any{"type": "stream_event", "uuid": "u", "session_id": "s", "event": map[string]any{}}
			},
			drop:      func(r map[string]any) { r["session_id"] = nil },
			wantField: "session_id",
		},
	}

	for _, field := range []string{"subtype", "duration_ms", "duration_api_ms", "is_error", "num_turns", "session_id"} {
		tests = append(tests, struct {
			name      string
			record    func() map[string]any
			drop      func(map[string]any)
			wantField string
		}{
			name:      "result " + field,
			record:    resultRecord,
			drop:      func(r map[string]any) { delete(r, field) },
			wantField: field,
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.record()
			tt.drop(record)

			msg, err := Validate(record)
			require.Nil(t, msg)
			require.ErrorIs(t, err, bridgeerrors.ErrMissingField)

			parseErr, ok := errors.AsType[*bridgeerrors.MessageParseError](err)
			require.True(t, ok, "expected *MessageParseError, got %T", err)
			require.Equal(t, tt.wantField, parseErr.Field)
			require.Equal(t, record, parseErr.Data)
		})
	}
}

func TestValidateInvalidFieldType(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{name: "string turns", field: "num_turns", value: "two"},
		{name: "fractional turns", field: "num_turns", value: 2.7},
		{name: "fractional duration", field: "duration_ms", value: 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := resultRecord()
			record[tt.field] = tt.value

			msg, err := Validate(record)
			require.Nil(t, msg)
			require.ErrorIs(t, err, bridgeerrors.ErrInvalidField)

			parseErr, ok := errors.AsType[*bridgeerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, tt.field, parseErr.Field)
		})
	}
}

func TestValidateToolResultContentIsVerbatim(t *testing.T) {
	image := map[string]any{
		"type":   "image",
		"source": map[string]any{"type": "base64", "media_type": "image/png", "data": "iVBORw0KGgo="},
	}
	untyped := map[string]any{"note": "no type key"}

	msg, err := Validate(map[string]any{
		"type": "user",
		"message": map[string]any{
			"content": []any{
				map[string]any{"type": "tool_result", "tool_use_id": "toolu_img", "content": []any{image, untyped}},
				map[string]any{"type": "tool_result", "tool_use_id": "toolu_str", "content": "done"},
				map[string]any{"type": "tool_result", "tool_use_id": "toolu_one", "content": []any{
					map[string]any{"type": "text", "text": "done"},
				}},
			},
		},
	})
	require.NoError(t, err)

	blocks := msg.(*UserMessage).Content.Blocks()
	require.Len(t, blocks, 3)

	require.Equal(t, []any{image, untyped}, blocks[0].(*ToolResultBlock).Content)

	// A string and a one-item array stay distinguishable.
	require.Equal(t, "done", blocks[1].(*ToolResultBlock).Content)
	require.IsType(t, []any{}, blocks[2].(*ToolResultBlock).Content)
}

func TestValidateUnknownMessageTypes(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantErr error
	}{
		{
			name:    "rate limit event",
			data:    map[string]any{"type": "rate_limit_event", "status": "rejected"},
			wantErr: bridgeerrors.ErrUnknownMessageType,
		},
		{
			name:    "arbitrary future type",
			data:    map[string]any{"type": "some_future_event_type"},
			wantErr: bridgeerrors.ErrUnknownMessageType,
		},
		{
			name:    "missing type",
			data:    map[string]any{"data": "no type here"},
			wantErr: bridgeerrors.ErrMissingField,
		},
		{
			name:    "non-string type",
			data:    map[string]any{"type": float64(3)},
			wantErr: bridgeerrors.ErrInvalidField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Validate(tt.data)
			require.Nil(t, msg)
			require.ErrorIs(t, err, tt.wantErr)

			_, ok := errors.AsType[*bridgeerrors.MessageParseError](err)
			require.True(t, ok)
		})
	}
}

func TestValidateSkipsUnknownBlockType(t *testing.T) {
	record := assistantRecord()
	body := record["message"].(map[string]any)
	body["content"] = append(
		[]any{map[string]any{"type": "server_tool_use", "id": "x"}},
		body["content"].([]any)...,
	)

	msg, err := Validate(record)
	require.NoError(t, err)
	require.Len(t, msg.(*AssistantMessage).Content.Blocks(), 3)
}

func TestValidateDoesNotMutateRecord(t *testing.T) {
	record := resultRecord()
	before := maps.Clone(record)

	_, err := Validate(record)
	require.NoError(t, err)
	require.Equal(t, before, record)
}

func TestInputRecordJSON(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		data, err := json.Marshal(NewUserInput("ping"))
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"user","message":{"role":"user","content":"ping"}}`, string(data))
	})

	t.Run("blocks", func(t *testing.T) {
		rec := NewUserBlocksInput(&TextBlock{Type: BlockTypeText, Text: "hi"})
		rec.SessionID = "default"

		data, err := json.Marshal(rec)
		require.NoError(t, err)
		require.JSONEq(t,
			`{"type":"user","session_id":"default","message":{"role":"user","content":[{"type":"text","text":"hi"}]}}`,
			string(data),
		)
	})

	t.Run("content decodes back", func(t *testing.T) {
		var c Content
		require.NoError(t, json.Unmarshal([]byte(`[{"type":"text","text":"x"},{"type":"mystery"}]`), &c))
		require.False(t, c.IsString())
		require.Len(t, c.Blocks(), 1)
		require.Equal(t, "x", c.String())
	})
}
