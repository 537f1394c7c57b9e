package protocol

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wagiedev/agentbridge/internal/errors"
	"github.com/wagiedev/agentbridge/internal/hook"
	"github.com/wagiedev/agentbridge/internal/mcp"
	"github.com/wagiedev/agentbridge/internal/permission"
)

// SubtypeInitialize is the outbound handshake request.
const SubtypeInitialize = "initialize"

// Handlers answers inbound control requests from the session's hook
// registry, permission callback and tool servers. All three are optional;
// a request for a missing one is answered with an error response.
type Handlers struct {
	log        *slog.Logger
	hooks      *hook.Registry
	canUseTool permission.Callback
	tools      *mcp.Router
}

// NewHandlers bundles the session's control request handlers.
func NewHandlers(
	log *slog.Logger,
	hooks *hook.Registry,
	canUseTool permission.Callback,
	tools *mcp.Router,
) *Handlers {
	return &Handlers{
		log:        log.With("component", "handlers"),
		hooks:      hooks,
		canUseTool: canUseTool,
		tools:      tools,
	}
}

// Register installs the handlers on c.
func (h *Handlers) Register(c *Controller) {
	c.RegisterHandler(KindHookInvocation, h.HandleHookInvocation)
	c.RegisterHandler(KindPermissionCheck, h.HandlePermissionCheck)
	c.RegisterHandler(KindToolCall, h.HandleToolCall)
}

// InitializePayload is the body of the initialize handshake: the hook wire
// configuration and the names of the in-process tool servers.
func (h *Handlers) InitializePayload() map[string]any {
	payload := map[string]any{
		"hooks": nil,
	}

	if h.hooks.Len() > 0 {
		payload["hooks"] = h.hooks.Wire()
	}

	if h.tools.Len() > 0 {
		payload["sdkMcpServers"] = h.tools.Names()
	}

	return payload
}

// Initialize performs the handshake over c and returns the process's reply.
func (h *Handlers) Initialize(ctx context.Context, c *Controller) (map[string]any, error) {
	h.log.Debug("Sending initialize request", "hooks", h.hooks.Len(), "tool_servers", h.tools.Len())

	result, err := c.SendRequest(ctx, SubtypeInitialize, h.InitializePayload())
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return result, nil
}

// HandleHookInvocation runs the hook callbacks a hook_callback request
// selects and returns their encoded output.
func (h *Handlers) HandleHookInvocation(ctx context.Context, req *ControlRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if h.hooks.Len() == 0 {
		return nil, fmt.Errorf("%w for hook invocations", errors.ErrNoHandler)
	}

	inv := hook.Invocation{}
	inv.CallbackID, _ = req.Payload["callback_id"].(string)
	inv.Input, _ = req.Payload["input"].(map[string]any)

	if id, ok := req.Payload["tool_use_id"].(string); ok && id != "" {
		inv.ToolUseID = &id
	}

	h.log.Debug("Handling hook invocation", "request_id", req.ID, "callback_id", inv.CallbackID)

	return h.hooks.Dispatch(ctx, inv)
}

// HandlePermissionCheck asks the permission callback about a tool call.
func (h *Handlers) HandlePermissionCheck(ctx context.Context, req *ControlRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if h.canUseTool == nil {
		return nil, fmt.Errorf("%w for permission checks", errors.ErrNoHandler)
	}

	check, err := permission.DecodeRequest(req.Payload)
	if err != nil {
		return nil, err
	}

	h.log.Debug("Handling permission check", "request_id", req.ID, "tool_name", check.ToolName)

	result, err := h.canUseTool(ctx, check.ToolName, check.Input, check.Context())
	if err != nil {
		return nil, fmt.Errorf("permission callback: %w", err)
	}

	return permission.Encode(result)
}

// HandleToolCall routes a JSON-RPC message to an in-process tool server.
func (h *Handlers) HandleToolCall(ctx context.Context, req *ControlRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if h.tools.Len() == 0 {
		return nil, fmt.Errorf("%w for tool calls", errors.ErrNoHandler)
	}

	serverName, _ := req.Payload["server_name"].(string)
	message, _ := req.Payload["message"].(map[string]any)

	h.log.Debug("Handling tool call", "request_id", req.ID, "server_name", serverName)

	return h.tools.Handle(ctx, serverName, message)
}
