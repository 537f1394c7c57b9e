package mcp

import (
	"context"
	"encoding/json"
)

// Server is an in-process tool server reachable through the control channel.
type Server interface {
	Name() string
	Version() string
}

// ToolServer lists and calls tools directly; the Router speaks JSON-RPC for it.
type ToolServer interface {
	Server
	// ListTools returns tool metadata in MCP tools/list form.
	ListTools() []map[string]any
	// CallTool executes a tool and returns an MCP tools/call result.
	CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error)
}

// MessageServer handles raw JSON-RPC messages itself. A nil response means
// the message was a notification.
type MessageServer interface {
	Server
	HandleMessage(ctx context.Context, message json.RawMessage) (json.RawMessage, error)
}
