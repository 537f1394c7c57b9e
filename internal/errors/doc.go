// Package errors defines error types for agentbridge.
//
// Configuration mistakes surface as *ConfigError before any I/O happens.
// Failures on the wire surface as *MessageParseError, *DecodeError or
// *ProcessError and end the session. All types support errors.Is, errors.As
// and errors.AsType.
package errors
