package agentbridge

import (
	"io"
	"log/slog"
	"os/exec"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/transport"
)

// Transport is the bidirectional record channel to the assistant process.
// Implement it to run the engine over anything that carries JSON records,
// or use NewProcessTransport and NewStreamTransport.
type Transport = config.Transport

// Launch carries the resolved parameters a transport factory needs to start
// the assistant process.
type Launch = config.Launch

// TransportOption configures the built-in transports.
type TransportOption = transport.Option

// WithTransportLogger sets the logger of a built-in transport.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return transport.WithLogger(logger)
}

// WithMaxLineSize caps the size of one inbound record.
func WithMaxLineSize(size int) TransportOption {
	return transport.WithMaxLineSize(size)
}

// WithStderr receives each stderr line of the assistant process.
func WithStderr(fn func(line string)) TransportOption {
	return transport.WithStderr(fn)
}

// NewProcessTransport runs cmd and speaks newline-delimited JSON over its
// stdin and stdout. cmd must not be started and must not have its standard
// streams set. Finding the binary and building its arguments is up to the
// caller.
func NewProcessTransport(cmd *exec.Cmd, opts ...TransportOption) Transport {
	return transport.NewProcess(cmd, opts...)
}

// NewStreamTransport speaks newline-delimited JSON over r and w.
func NewStreamTransport(r io.Reader, w io.WriteCloser, opts ...TransportOption) Transport {
	return transport.NewStream(r, w, opts...)
}
