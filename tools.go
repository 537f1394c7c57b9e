package agentbridge

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpgoserver "github.com/mark3labs/mcp-go/server"

	internalmcp "github.com/wagiedev/agentbridge/internal/mcp"
)

// Re-export MCP SDK types for public API.
type (
	// CallToolResult is a tool's reply. Build one with TextResult,
	// ErrorResult or ImageResult.
	CallToolResult = mcp.CallToolResult

	// CallToolRequest is the request passed to tool handlers.
	CallToolRequest = mcp.CallToolRequest

	// ToolAnnotations are optional hints about tool behavior.
	ToolAnnotations = mcp.ToolAnnotations

	// ToolHandler handles one tool call. Use ParseArguments to read the input.
	ToolHandler = mcp.ToolHandler

	// Schema is a JSON Schema object for tool input.
	Schema = jsonschema.Schema
)

// ToolServer is an in-process tool server the assistant process reaches
// through the control channel. Register it with WithToolServer.
type ToolServer = internalmcp.Server

// ToolOption configures a Tool during construction.
type ToolOption func(*Tool)

// WithAnnotations sets MCP tool annotations.
func WithAnnotations(annotations *mcp.ToolAnnotations) ToolOption {
	return func(t *Tool) {
		t.Annotations = annotations
	}
}

// Tool is an in-process tool: metadata plus the handler that runs it.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     ToolHandler
	Annotations *mcp.ToolAnnotations
}

// NewTool creates a Tool.
//
//	add := agentbridge.NewTool("add", "Add two numbers",
//	    agentbridge.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(ctx context.Context, req *agentbridge.CallToolRequest) (*agentbridge.CallToolResult, error) {
//	        args, _ := agentbridge.ParseArguments(req)
//	        return agentbridge.TextResult(fmt.Sprint(args["a"].(float64) + args["b"].(float64))), nil
//	    },
//	)
func NewTool(name, description string, inputSchema *jsonschema.Schema, handler ToolHandler, opts ...ToolOption) *Tool {
	t := &Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		Handler:     handler,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// CreateToolServer creates an in-process tool server backed by the MCP go-sdk.
// The assistant process addresses its tools as mcp__<name>__<tool>.
func CreateToolServer(name, version string, tools ...*Tool) ToolServer {
	server := internalmcp.NewSDKServer(name, version)

	for _, t := range tools {
		mcpTool := internalmcp.NewTool(t.Name, t.Description, t.InputSchema)
		mcpTool.Annotations = t.Annotations
		server.AddTool(mcpTool, t.Handler)
	}

	return server
}

// NewMCPGoServer exposes a mark3labs/mcp-go server as an in-process tool
// server. Every JSON-RPC method srv supports is passed through unchanged.
func NewMCPGoServer(name, version string, srv *mcpgoserver.MCPServer) ToolServer {
	return internalmcp.NewMCPGoServer(name, version, srv)
}

// SimpleSchema creates an object schema from a property type map such as
// {"a": "float64", "path": "string"}. Every property is required.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	return internalmcp.SimpleSchema(props)
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return internalmcp.TextResult(text)
}

// ErrorResult creates a CallToolResult flagged as an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return internalmcp.ErrorResult(message)
}

// ImageResult creates a CallToolResult with image content.
func ImageResult(data []byte, mimeType string) *mcp.CallToolResult {
	return internalmcp.ImageResult(data, mimeType)
}

// ParseArguments decodes the tool input of req into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	return internalmcp.ParseArguments(req)
}
