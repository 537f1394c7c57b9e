// Package message defines the typed conversation messages exchanged with the
// assistant process and the validator that produces them from raw records.
package message

import (
	"encoding/json"
	"fmt"
)

// Block type constants.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock represents a block of content within a message.
type ContentBlock interface {
	BlockType() string
}

// Compile-time verification that all content block types implement ContentBlock.
var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ThinkingBlock)(nil)
	_ ContentBlock = (*ToolUseBlock)(nil)
	_ ContentBlock = (*ToolResultBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BlockType implements the ContentBlock interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// ThinkingBlock contains the assistant's reasoning.
type ThinkingBlock struct {
	Type      string `json:"type"`
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

// BlockType implements the ContentBlock interface.
func (b *ThinkingBlock) BlockType() string { return BlockTypeThinking }

// ToolUseBlock represents the assistant invoking a tool.
type ToolUseBlock struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolUseBlock) BlockType() string { return BlockTypeToolUse }

// ToolResultBlock carries the result of a tool execution.
// Content is the payload exactly as received: a string, a []any of raw
// block objects, or nil when absent.
//
//nolint:tagliatelle // wire format uses snake_case
type ToolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   any    `json:"content,omitempty"`
	IsError   *bool  `json:"is_error,omitempty"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolResultBlock) BlockType() string { return BlockTypeToolResult }

// Content is message content: either a scalar string or an ordered sequence
// of blocks. The zero value is empty block content.
type Content struct {
	text   *string
	blocks []ContentBlock
}

// TextContent creates Content holding a scalar string.
func TextContent(text string) Content {
	return Content{text: &text}
}

// BlockContent creates Content holding blocks.
func BlockContent(blocks ...ContentBlock) Content {
	if blocks == nil {
		blocks = []ContentBlock{}
	}

	return Content{blocks: blocks}
}

// String returns the scalar text, or the concatenated text blocks.
func (c Content) String() string {
	if c.text != nil {
		return *c.text
	}

	var out string

	for _, b := range c.blocks {
		if tb, ok := b.(*TextBlock); ok {
			out += tb.Text
		}
	}

	return out
}

// Blocks returns the content as blocks, normalizing a scalar to one TextBlock.
func (c Content) Blocks() []ContentBlock {
	if c.text != nil {
		return []ContentBlock{&TextBlock{Type: BlockTypeText, Text: *c.text}}
	}

	return c.blocks
}

// IsString reports whether the content arrived as a scalar string.
func (c Content) IsString() bool {
	return c.text != nil
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.text != nil {
		return json.Marshal(*c.text)
	}

	if c.blocks == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(c.blocks)
}

// UnmarshalJSON implements json.Unmarshaler using the same rules as Validate.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v := &validator{record: map[string]any{"content": raw}}

	content, err := v.content(v.record, "", "content")
	if err != nil {
		return fmt.Errorf("decode content: %w", err)
	}

	*c = content

	return nil
}
