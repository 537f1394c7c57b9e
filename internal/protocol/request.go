package protocol

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Record types carried on the control channel.
const (
	TypeControlRequest       = "control_request"
	TypeControlResponse      = "control_response"
	TypeControlCancelRequest = "control_cancel_request"
)

// Response subtypes.
const (
	subtypeSuccess   = "success"
	subtypeError     = "error"
	subtypeCancelAck = "cancel_acknowledgment"
)

// Kind identifies what an inbound control request asks for.
type Kind string

const (
	// KindHookInvocation runs registered hook callbacks.
	KindHookInvocation Kind = "hook_callback"
	// KindPermissionCheck asks whether a tool may run.
	KindPermissionCheck Kind = "can_use_tool"
	// KindToolCall carries a JSON-RPC message for an in-process tool server.
	KindToolCall Kind = "mcp_message"
)

// ControlRequest is a control request in either direction.
//
// Wire format:
//
//	{
//	  "type": "control_request",
//	  "request_id": "01J...",
//	  "request": {"subtype": "can_use_tool", "tool_name": "Bash", ...}
//	}
type ControlRequest struct {
	ID      string
	Kind    Kind
	Subtype string
	// Payload is the request body without the subtype.
	Payload map[string]any
}

// MarshalJSON encodes the request in wire form.
func (r *ControlRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Payload)+1)
	maps.Copy(body, r.Payload)
	body["subtype"] = r.Subtype

	//nolint:tagliatelle // wire format uses snake_case
	return json.Marshal(struct {
		Type      string         `json:"type"`
		RequestID string         `json:"request_id"`
		Request   map[string]any `json:"request"`
	}{
		Type:      TypeControlRequest,
		RequestID: r.ID,
		Request:   body,
	})
}

func decodeRequest(record map[string]any) (*ControlRequest, error) {
	id, ok := record["request_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("control request missing request_id")
	}

	body, ok := record["request"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("control request %s missing request", id)
	}

	subtype, _ := body["subtype"].(string)

	payload := maps.Clone(body)
	delete(payload, "subtype")

	return &ControlRequest{
		ID:      id,
		Kind:    Kind(subtype),
		Subtype: subtype,
		Payload: payload,
	}, nil
}

// ControlResponse answers a ControlRequest with the same ID. Exactly one of
// Result or Err is meaningful, selected by Subtype.
//
// Wire format:
//
//	{
//	  "type": "control_response",
//	  "response": {"subtype": "success", "request_id": "01J...", "response": {...}}
//	}
//
// or, on failure, {"subtype": "error", "request_id": "01J...", "error": "..."}.
type ControlResponse struct {
	ID      string
	Subtype string
	Result  map[string]any
	Err     string
	// Extra holds additional response fields, such as those of a cancel
	// acknowledgment.
	Extra map[string]any
}

// IsError reports whether the response is an error response.
func (r *ControlResponse) IsError() bool {
	return r.Subtype == subtypeError
}

func successResponse(id string, result map[string]any) *ControlResponse {
	return &ControlResponse{ID: id, Subtype: subtypeSuccess, Result: result}
}

func errorResponse(id string, err error) *ControlResponse {
	return &ControlResponse{ID: id, Subtype: subtypeError, Err: err.Error()}
}

// MarshalJSON encodes the response in wire form.
func (r *ControlResponse) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Extra)+3)
	maps.Copy(body, r.Extra)

	body["subtype"] = r.Subtype
	body["request_id"] = r.ID

	switch r.Subtype {
	case subtypeSuccess:
		result := r.Result
		if result == nil {
			result = map[string]any{}
		}

		body["response"] = result
	case subtypeError:
		body["error"] = r.Err
	}

	return json.Marshal(map[string]any{
		"type":     TypeControlResponse,
		"response": body,
	})
}

func decodeResponse(record map[string]any) (*ControlResponse, error) {
	body, ok := record["response"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("control response missing response")
	}

	id, ok := body["request_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("control response missing request_id")
	}

	resp := &ControlResponse{ID: id}
	resp.Subtype, _ = body["subtype"].(string)

	switch resp.Subtype {
	case subtypeSuccess:
		resp.Result, _ = body["response"].(map[string]any)
	case subtypeError:
		resp.Err, _ = body["error"].(string)
		if resp.Err == "" {
			resp.Err = "unknown error"
		}
	default:
		return nil, fmt.Errorf("control response %s has unknown subtype %q", id, resp.Subtype)
	}

	return resp, nil
}
