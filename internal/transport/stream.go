package transport

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/errors"
)

// Stream is a transport over an already-open reader/writer pair, such as a
// socket or the pipes of a process started elsewhere.
type Stream struct {
	log         *slog.Logger
	r           io.Reader
	w           io.WriteCloser
	out         *lineWriter
	maxLineSize int

	mu        sync.Mutex
	connected bool
	reading   bool
	closed    bool
}

var _ config.Transport = (*Stream)(nil)

// NewStream creates a transport reading records from r and writing records
// to w. Closing the transport closes w, and r too when it is an io.Closer.
func NewStream(r io.Reader, w io.WriteCloser, opts ...Option) *Stream {
	s := newSettings(opts)
	log := s.logger.With("component", "transport")

	return &Stream{
		log:         log,
		r:           r,
		w:           w,
		out:         newLineWriter(log),
		maxLineSize: s.maxLineSize,
	}
}

// Connect marks the stream ready. The pipes are expected to be open.
func (s *Stream) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrClosed
	}

	if s.r == nil || s.w == nil {
		return &errors.ConnectionError{Err: errors.ErrTransportNotConnected}
	}

	s.connected = true
	s.out.attach(s.w)
	s.log.Debug("Stream transport connected")

	return nil
}

// Records starts reading inbound records. It may be called once.
func (s *Stream) Records(ctx context.Context) (<-chan map[string]any, <-chan error) {
	s.mu.Lock()

	if !s.connected || s.closed {
		s.mu.Unlock()

		return closedRecords(errors.ErrTransportNotConnected)
	}

	if s.reading {
		s.mu.Unlock()

		return closedRecords(errors.ErrAlreadyConnected)
	}

	s.reading = true
	s.mu.Unlock()

	records := make(chan map[string]any)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)
		defer s.log.Debug("Record reader stopped")

		if err := scanRecords(ctx, s.log, s.r, s.maxLineSize, records); err != nil {
			if s.isClosed() {
				return
			}

			errs <- err
		}
	}()

	return records, errs
}

// Send writes one record.
func (s *Stream) Send(ctx context.Context, data []byte) error {
	return s.out.send(ctx, data)
}

// EndInput closes the writer.
func (s *Stream) EndInput() error {
	return s.out.close()
}

// Close closes both sides. Safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	connected := s.connected
	s.mu.Unlock()

	if !connected && s.w != nil {
		s.out.attach(s.w)
	}

	err := s.out.close()

	if rc, ok := s.r.(io.Closer); ok {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
