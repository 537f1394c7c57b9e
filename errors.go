package agentbridge

import "github.com/wagiedev/agentbridge/internal/errors"

// Re-export error types from internal package

// BridgeError is implemented by every typed error of this package.
type BridgeError = errors.BridgeError

// ConfigError reports an invalid option combination, before any I/O.
type ConfigError = errors.ConfigError

// ConnectionError indicates the transport could not be created or connected.
type ConnectionError = errors.ConnectionError

// ProcessError indicates the assistant process exited abnormally.
type ProcessError = errors.ProcessError

// MessageParseError indicates a conversation record failed validation.
type MessageParseError = errors.MessageParseError

// DecodeError indicates an inbound line was not a JSON object.
type DecodeError = errors.DecodeError

// ControlError is an error reply to an outbound control request.
type ControlError = errors.ControlError

// Re-export sentinel errors from internal package.
var (
	// ErrNotConnected indicates the session has not been started.
	ErrNotConnected = errors.ErrNotConnected

	// ErrAlreadyConnected indicates the session was started twice.
	ErrAlreadyConnected = errors.ErrAlreadyConnected

	// ErrClosed indicates the session has been closed and cannot be reused.
	ErrClosed = errors.ErrClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrControllerStopped indicates the control channel has shut down.
	ErrControllerStopped = errors.ErrControllerStopped

	// ErrInputClosed indicates input was already ended.
	ErrInputClosed = errors.ErrInputClosed

	// ErrOperationCancelled indicates the assistant process cancelled a request.
	ErrOperationCancelled = errors.ErrOperationCancelled

	// ErrUnknownMessageType indicates a record of an unrecognized type.
	ErrUnknownMessageType = errors.ErrUnknownMessageType

	// ErrMissingField indicates a required field is absent from a record.
	ErrMissingField = errors.ErrMissingField

	// ErrInvalidField indicates a field has the wrong shape.
	ErrInvalidField = errors.ErrInvalidField

	// ErrNoHandler indicates no handler matched a control request.
	ErrNoHandler = errors.ErrNoHandler

	// ErrNotStreaming indicates an operation that needs streaming mode.
	ErrNotStreaming = errors.ErrNotStreaming
)
