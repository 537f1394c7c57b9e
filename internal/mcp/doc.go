// Package mcp serves in-process tool servers to the assistant process.
//
// Tool calls arrive as JSON-RPC messages wrapped in control requests. The
// Router resolves the target server by name and either answers the message
// itself (ToolServer, backed by the official go-sdk types in SDKServer) or
// forwards the raw message to a server that speaks JSON-RPC on its own
// (MessageServer, for example an mcp-go server wrapped by NewMCPGoServer).
package mcp
