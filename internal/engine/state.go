package engine

// State is the lifecycle stage of an Engine.
type State int

const (
	// StateCreated is the state before Connect.
	StateCreated State = iota
	// StateConnected means the transport is up and the dispatch loop runs.
	StateConnected
	// StateStreaming means the caller's input stream is being sent.
	StateStreaming
	// StateDraining means input has ended; remaining output is still read.
	StateDraining
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
