package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/agentbridge/internal/errors"
)

const (
	// DefaultMaxLineSize is the maximum size of one inbound record.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr kept for ProcessError. The stderr
	// callback still sees every line past the cap.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
	// writeAbandonTimeout bounds the wait for a write goroutine after its pipe
	// was closed to unblock it.
	writeAbandonTimeout = time.Second
)

var errNotObject = stderrors.New("record is not a JSON object")

// Option configures a Stream or Process.
type Option func(*settings)

type settings struct {
	logger      *slog.Logger
	maxLineSize int
	stderr      func(string)
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:      slog.New(slog.DiscardHandler),
		maxLineSize: DefaultMaxLineSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithLogger sets the logger for transport diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxLineSize sets the maximum size of one inbound record in bytes.
func WithMaxLineSize(size int) Option {
	return func(s *settings) {
		if size > 0 {
			s.maxLineSize = size
		}
	}
}

// WithStderr sets a callback receiving each stderr line of a Process.
// Ignored by Stream.
func WithStderr(fn func(string)) Option {
	return func(s *settings) {
		s.stderr = fn
	}
}

// scanRecords decodes newline-delimited JSON objects from r into records
// until end of input. Blank lines are skipped. The first undecodable line
// ends the scan with a *errors.DecodeError.
func scanRecords(
	ctx context.Context,
	log *slog.Logger,
	r io.Reader,
	maxLineSize int,
	records chan<- map[string]any,
) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)

	count := 0

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var record map[string]any

		if err := json.Unmarshal(line, &record); err != nil {
			log.Debug("Failed to decode inbound record", "error", err, "record", string(line))

			return &errors.DecodeError{RawData: string(line), Err: err}
		}

		if record == nil {
			return &errors.DecodeError{
				RawData: string(line),
				Err:     errNotObject,
			}
		}

		count++
		log.Debug("Received record", "record_count", count)

		select {
		case records <- record:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan records: %w", err)
	}

	return nil
}

// lineWriter serializes newline-terminated writes to one outbound pipe.
// Closing never waits for a blocked write: it closes the pipe to release it.
type lineWriter struct {
	log     *slog.Logger
	slot    chan struct{}
	closing chan struct{}

	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

func newLineWriter(log *slog.Logger) *lineWriter {
	return &lineWriter{
		log:     log,
		slot:    make(chan struct{}, 1),
		closing: make(chan struct{}),
	}
}

func (lw *lineWriter) attach(w io.WriteCloser) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	lw.w = w
}

// send writes data plus a trailing newline as a single write. If ctx ends
// while the write is blocked, the pipe is closed to release it and later
// sends fail with ErrInputClosed. A concurrent close releases it the same way.
func (lw *lineWriter) send(ctx context.Context, data []byte) error {
	select {
	case lw.slot <- struct{}{}:
	case <-lw.closing:
		return errors.ErrInputClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	defer func() { <-lw.slot }()

	lw.mu.Lock()
	w, closed := lw.w, lw.closed
	lw.mu.Unlock()

	if closed {
		return errors.ErrInputClosed
	}

	if w == nil {
		return errors.ErrTransportNotConnected
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	done := make(chan error, 1)

	go func() {
		_, err := w.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			lw.log.Error("Failed to write record", "error", err)

			return fmt.Errorf("write record: %w", err)
		}

		lw.log.Debug("Sent record", "data_len", len(data))

		return nil

	case <-lw.closing:
		select {
		case err := <-done:
			if err == nil {
				return nil
			}
		default:
		}

		lw.log.Debug("Input closed during write")

		return errors.ErrInputClosed

	case <-ctx.Done():
		lw.log.Debug("Context cancelled during write, closing input")

		_ = lw.close()

		select {
		case <-done:
		case <-time.After(writeAbandonTimeout):
			lw.log.Warn("Write goroutine did not exit after input close")
		}

		return ctx.Err()
	}
}

// close closes the pipe once, without waiting for an in-progress write.
// Later calls are no-ops.
func (lw *lineWriter) close() error {
	lw.mu.Lock()

	if lw.closed {
		lw.mu.Unlock()

		return nil
	}

	lw.closed = true
	w := lw.w

	close(lw.closing)
	lw.mu.Unlock()

	if w == nil {
		return nil
	}

	lw.log.Debug("Closing input")

	return w.Close()
}

// closedRecords returns already-closed channels carrying err.
func closedRecords(err error) (<-chan map[string]any, <-chan error) {
	records := make(chan map[string]any)
	errs := make(chan error, 1)

	errs <- err

	close(records)
	close(errs)

	return records, errs
}
