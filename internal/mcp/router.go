package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// ProtocolVersion is the MCP protocol version reported by ToolServers.
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Router dispatches tool-call messages to servers by name.
// Its server set is fixed at construction.
type Router struct {
	servers map[string]Server
}

// NewRouter creates a router over a copy of servers.
func NewRouter(servers map[string]Server) *Router {
	return &Router{servers: maps.Clone(servers)}
}

// Len returns the number of servers.
func (r *Router) Len() int {
	if r == nil {
		return 0
	}

	return len(r.servers)
}

// Names returns the server names in sorted order.
func (r *Router) Names() []string {
	if r == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(r.servers))
}

// Handle answers one JSON-RPC message addressed to serverName and returns the
// control response payload {"mcp_response": ...}.
//
// Protocol-level problems (unknown server, unknown method, bad params) are
// reported inside the JSON-RPC response. An error is returned only when the
// message itself is missing.
func (r *Router) Handle(ctx context.Context, serverName string, message map[string]any) (map[string]any, error) {
	if message == nil {
		return nil, fmt.Errorf("tool call for %q has no message", serverName)
	}

	id := message["id"]

	var srv Server
	if r != nil {
		srv = r.servers[serverName]
	}

	if srv == nil {
		return rpcError(id, codeInvalidRequest, "MCP server not found: "+serverName), nil
	}

	switch s := srv.(type) {
	case MessageServer:
		return forward(ctx, s, id, message), nil
	case ToolServer:
		return route(ctx, s, id, message), nil
	default:
		return rpcError(id, codeInternalError, fmt.Sprintf("MCP server %s cannot handle messages", serverName)), nil
	}
}

func forward(ctx context.Context, s MessageServer, id any, message map[string]any) map[string]any {
	raw, err := json.Marshal(message)
	if err != nil {
		return rpcError(id, codeInternalError, "encode message: "+err.Error())
	}

	reply, err := s.HandleMessage(ctx, raw)
	if err != nil {
		return rpcError(id, codeInternalError, err.Error())
	}

	if len(reply) == 0 {
		return rpcResult(id, map[string]any{})
	}

	var response map[string]any
	if err := json.Unmarshal(reply, &response); err != nil {
		return rpcError(id, codeInternalError, "decode reply: "+err.Error())
	}

	return map[string]any{"mcp_response": response}
}

func route(ctx context.Context, s ToolServer, id any, message map[string]any) map[string]any {
	method, _ := message["method"].(string)
	params, _ := message["params"].(map[string]any)

	switch method {
	case "initialize":
		return rpcResult(id, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": s.Name(), "version": s.Version()},
		})

	case "notifications/initialized":
		return rpcResult(id, map[string]any{})

	case "tools/list":
		return rpcResult(id, map[string]any{"tools": s.ListTools()})

	case "tools/call":
		name, _ := params["name"].(string)
		if name == "" {
			return rpcError(id, codeInvalidParams, "tools/call requires params.name")
		}

		arguments, _ := params["arguments"].(map[string]any)

		result, err := s.CallTool(ctx, name, arguments)
		if err != nil {
			return rpcError(id, codeInternalError, err.Error())
		}

		return rpcResult(id, result)

	default:
		return rpcError(id, codeMethodNotFound, "Method not found: "+method)
	}
}

func rpcResult(id any, result map[string]any) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"result":  result,
		},
	}
}

func rpcError(id any, code int, msg string) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"error":   map[string]any{"code": code, "message": msg},
		},
	}
}
