package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all agentbridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*ConfigError)(nil)
	_ BridgeError = (*ConnectionError)(nil)
	_ BridgeError = (*ProcessError)(nil)
	_ BridgeError = (*MessageParseError)(nil)
	_ BridgeError = (*DecodeError)(nil)
	_ BridgeError = (*ControlError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotConnected indicates the engine has not been connected yet.
	ErrNotConnected = errors.New("engine not connected")

	// ErrAlreadyConnected indicates Connect was called twice.
	ErrAlreadyConnected = errors.New("engine already connected")

	// ErrClosed indicates the engine has been closed and cannot be reused.
	ErrClosed = errors.New("engine closed: sessions are single-use")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrControllerStopped indicates the protocol controller has stopped.
	ErrControllerStopped = errors.New("protocol controller stopped")

	// ErrInputClosed indicates the outbound side of the transport was closed.
	ErrInputClosed = errors.New("input closed")

	// ErrOperationCancelled indicates a handler was cancelled by a cancel request.
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrUnknownMessageType indicates a conversation record has an unrecognized type.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrMissingField indicates a required field is absent from a record.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField indicates a field is present but has the wrong shape.
	ErrInvalidField = errors.New("invalid field")

	// ErrNoHandler indicates no registered handler matches a control request.
	ErrNoHandler = errors.New("no handler registered")

	// ErrNotStreaming indicates an operation that needs streaming mode was
	// used with a fixed prompt.
	ErrNotStreaming = errors.New("operation requires streaming mode")
)

// ConfigError indicates an invalid combination of options.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}

	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// IsBridgeError implements BridgeError.
func (e *ConfigError) IsBridgeError() bool { return true }

// ConnectionError indicates the transport could not be connected.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect transport: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ConnectionError) IsBridgeError() bool { return true }

// ProcessError indicates the external process exited abnormally.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessError) IsBridgeError() bool { return true }

// MessageParseError indicates a conversation record failed validation.
//
// Field is a dotted path into the record (for example
// "message.content[1].text"). Data is the original record.
type MessageParseError struct {
	MessageType string
	Field       string
	Err         error
	Data        map[string]any
}

func (e *MessageParseError) Error() string {
	switch {
	case e.Field != "" && e.MessageType != "":
		return fmt.Sprintf("parse %s message: %s: %v", e.MessageType, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("parse message: %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("parse message: %v", e.Err)
	}
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *MessageParseError) IsBridgeError() bool { return true }

// DecodeError indicates an inbound line was not valid JSON.
// RawData holds the offending line.
type DecodeError struct {
	RawData string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode inbound record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *DecodeError) IsBridgeError() bool { return true }

// ControlError is the error response to an outbound control request.
type ControlError struct {
	Subtype string
	Message string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("control request %s failed: %s", e.Subtype, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *ControlError) IsBridgeError() bool { return true }
