package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Compile-time verification that SDKServer implements ToolServer.
var _ ToolServer = (*SDKServer)(nil)

// SDKServer is a ToolServer whose tools are declared with the official MCP
// go-sdk types. Tools may be added until the server is handed to a session.
type SDKServer struct {
	name    string
	version string

	mu    sync.RWMutex
	tools map[string]registeredTool
}

type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewSDKServer creates an empty tool server.
func NewSDKServer(name, version string) *SDKServer {
	return &SDKServer{
		name:    name,
		version: version,
		tools:   make(map[string]registeredTool, 8),
	}
}

// AddTool registers a tool, replacing any tool with the same name.
func (s *SDKServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
}

// Name implements Server.
func (s *SDKServer) Name() string { return s.name }

// Version implements Server.
func (s *SDKServer) Version() string { return s.version }

// ListTools implements ToolServer. Tools are sorted by name.
func (s *SDKServer) ListTools() []map[string]any {
	s.mu.RLock()
	tools := slices.SortedFunc(maps.Values(s.tools), func(a, b registeredTool) int {
		return cmp.Compare(a.tool.Name, b.tool.Name)
	})
	s.mu.RUnlock()

	result := make([]map[string]any, 0, len(tools))

	for _, t := range tools {
		entry := map[string]any{
			"name":        t.tool.Name,
			"description": t.tool.Description,
		}

		if schema, ok := asMap(t.tool.InputSchema); ok {
			entry["inputSchema"] = schema
		}

		if t.tool.Annotations != nil {
			if annotations, ok := asMap(t.tool.Annotations); ok {
				entry["annotations"] = annotations
			}
		}

		result = append(result, entry)
	}

	return result
}

// CallTool implements ToolServer. Tool failures are reported in the result
// with is_error set, never as a Go error.
func (s *SDKServer) CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()

	if !ok {
		return errorContent("Tool not found: " + name), nil
	}

	if input == nil {
		input = map[string]any{}
	}

	args, err := json.Marshal(input)
	if err != nil {
		return errorContent("Failed to encode input: " + err.Error()), nil
	}

	result, err := t.handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: args},
	})
	if err != nil {
		return errorContent("Tool execution failed: " + err.Error()), nil
	}

	return resultToMap(result), nil
}

func errorContent(text string) map[string]any {
	return map[string]any{
		"content":  []any{map[string]any{"type": "text", "text": text}},
		"is_error": true,
	}
}

// resultToMap converts a go-sdk result into the control-channel shape, using
// the go-sdk's own wire encoding for each content item.
func resultToMap(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{"content": []any{}}
	}

	content := make([]any, 0, len(result.Content))

	for _, c := range result.Content {
		if item, ok := asMap(c); ok {
			content = append(content, item)
		}
	}

	out := map[string]any{"content": content}

	if result.IsError {
		out["is_error"] = true
	}

	if result.StructuredContent != nil {
		out["structuredContent"] = result.StructuredContent
	}

	return out
}

func asMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return nil, false
	}

	return m, true
}

// SimpleSchema builds an object schema from property name -> Go type name,
// for example {"a": "float64", "tags": "[]string"}. Every property is required.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))

	for name, goType := range props {
		properties[name] = schemaFor(goType)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   slices.Sorted(maps.Keys(props)),
	}
}

func schemaFor(goType string) *jsonschema.Schema {
	if item, ok := strings.CutPrefix(goType, "[]"); ok && item != "" {
		return &jsonschema.Schema{Type: "array", Items: schemaFor(item)}
	}

	switch goType {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "integer":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// TextResult creates a result with one text item.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// ErrorResult creates a result flagged as a tool error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: message}}, IsError: true}
}

// ImageResult creates a result with one image item.
func ImageResult(data []byte, mimeType string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: mimeType}}}
}

// NewTool creates a tool declaration.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{Name: name, Description: description, InputSchema: inputSchema}
}

// ParseArguments decodes the arguments of a tool call into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	args := make(map[string]any)

	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return args, nil
	}

	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}

	return args, nil
}
