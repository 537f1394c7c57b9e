// Package engine runs one session with the assistant process.
//
// An Engine owns the transport and the protocol controller for its session.
// It performs the initialize handshake in streaming mode, feeds the caller's
// input stream to the process, answers control requests through the
// configured handlers, and yields validated conversation messages in arrival
// order. Engines are single-use: once closed they cannot be reconnected.
package engine
