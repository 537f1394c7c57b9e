package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgoserver "github.com/mark3labs/mcp-go/server"
)

// Compile-time verification that MCPGoServer implements MessageServer.
var _ MessageServer = (*MCPGoServer)(nil)

// MCPGoServer exposes an mcp-go server to the control channel. Messages are
// passed through unchanged, so every method the mcp-go server supports is
// available to the assistant process.
type MCPGoServer struct {
	name    string
	version string
	server  *mcpgoserver.MCPServer
}

// NewMCPGoServer wraps srv. name and version should match the values srv was
// created with.
func NewMCPGoServer(name, version string, srv *mcpgoserver.MCPServer) *MCPGoServer {
	return &MCPGoServer{name: name, version: version, server: srv}
}

// Name implements Server.
func (s *MCPGoServer) Name() string { return s.name }

// Version implements Server.
func (s *MCPGoServer) Version() string { return s.version }

// HandleMessage implements MessageServer.
func (s *MCPGoServer) HandleMessage(ctx context.Context, message json.RawMessage) (json.RawMessage, error) {
	reply := s.server.HandleMessage(ctx, message)
	if reply == nil {
		return nil, nil
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encode mcp-go reply: %w", err)
	}

	return data, nil
}
