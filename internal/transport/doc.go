// Package transport carries line-delimited JSON records between the engine
// and the assistant process.
//
// Stream works over any reader/writer pair. Process wraps a caller-built
// *exec.Cmd, wiring its pipes and reporting abnormal exits as
// *errors.ProcessError. Locating the executable and building its arguments
// is left to the caller.
package transport
