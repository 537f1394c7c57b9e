package transport

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/errors"
)

// Process is a transport over the stdin/stdout of a child process.
type Process struct {
	log            *slog.Logger
	cmd            *exec.Cmd
	stdout         io.ReadCloser
	stderr         io.ReadCloser
	out            *lineWriter
	maxLineSize    int
	stderrCallback func(string)

	mu      sync.Mutex
	started bool
	reading bool
	closing bool
}

var _ config.Transport = (*Process)(nil)

// NewProcess creates a transport for cmd. The command must not have been
// started and must leave Stdin, Stdout and Stderr unset.
func NewProcess(cmd *exec.Cmd, opts ...Option) *Process {
	s := newSettings(opts)
	log := s.logger.With("component", "transport")

	return &Process{
		log:            log,
		cmd:            cmd,
		out:            newLineWriter(log),
		maxLineSize:    s.maxLineSize,
		stderrCallback: s.stderr,
	}
}

// Connect wires the pipes and starts the process.
func (p *Process) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closing {
		return errors.ErrClosed
	}

	if p.started {
		return errors.ErrAlreadyConnected
	}

	if p.cmd == nil {
		return &errors.ConnectionError{Err: stderrors.New("no command")}
	}

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return &errors.ConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := p.cmd.Start(); err != nil {
		p.log.Error("Failed to start process", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	p.stdout = stdout
	p.stderr = stderr
	p.out.attach(stdin)
	p.started = true

	p.log.Info("Process started", "pid", p.cmd.Process.Pid, "path", p.cmd.Path)

	return nil
}

// Records starts reading stdout. Once stdout ends the process is reaped; a
// non-zero exit not caused by Close is reported as *errors.ProcessError.
func (p *Process) Records(ctx context.Context) (<-chan map[string]any, <-chan error) {
	p.mu.Lock()

	if !p.started {
		p.mu.Unlock()

		return closedRecords(errors.ErrTransportNotConnected)
	}

	if p.reading {
		p.mu.Unlock()

		return closedRecords(errors.ErrAlreadyConnected)
	}

	p.reading = true
	p.mu.Unlock()

	records := make(chan map[string]any)
	errs := make(chan error, 1)

	var (
		stderrWg  sync.WaitGroup
		stderrMu  sync.Mutex
		stderrBuf strings.Builder
	)

	// Stderr must be drained before cmd.Wait.
	stderrWg.Go(func() {
		scanner := bufio.NewScanner(p.stderr)
		for scanner.Scan() {
			line := scanner.Text()

			stderrMu.Lock()

			if stderrBuf.Len() < maxStderrBufferSize {
				if stderrBuf.Len() > 0 {
					stderrBuf.WriteString("\n")
				}

				stderrBuf.WriteString(line)
			}

			stderrMu.Unlock()

			if p.stderrCallback != nil {
				p.stderrCallback(line)
			}
		}

		if err := scanner.Err(); err != nil {
			p.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(records)
		defer close(errs)
		defer p.log.Debug("Record reader stopped")

		scanErr := scanRecords(ctx, p.log, p.stdout, p.maxLineSize, records)
		if scanErr != nil && !p.isClosing() {
			errs <- scanErr
		}

		stderrWg.Wait()

		p.log.Debug("Waiting for process to exit")

		err := p.cmd.Wait()

		switch {
		case err == nil:
			p.log.Info("Process exited")
		case p.isClosing():
			p.log.Debug("Process terminated during shutdown")
		case scanErr != nil:
			p.log.Debug("Process exited after read failure", "error", err)
		default:
			stderrMu.Lock()
			stderrOutput := strings.TrimSpace(stderrBuf.String())
			stderrMu.Unlock()

			exitCode := -1
			if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
				exitCode = exitErr.ExitCode()
			}

			p.log.Error("Process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

			errs <- &errors.ProcessError{ExitCode: exitCode, Stderr: stderrOutput, Err: err}
		}
	}()

	return records, errs
}

// Send writes one record to stdin.
func (p *Process) Send(ctx context.Context, data []byte) error {
	return p.out.send(ctx, data)
}

// EndInput closes stdin. The process keeps running until it exits on its own.
func (p *Process) EndInput() error {
	return p.out.close()
}

// Close kills the process. Safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()

	if p.closing {
		p.mu.Unlock()

		return nil
	}

	p.closing = true
	started := p.started
	p.mu.Unlock()

	if !started || p.cmd.Process == nil {
		return p.out.close()
	}

	// Kill first so a write blocked on a full stdin pipe fails.
	p.log.Debug("Killing process", "pid", p.cmd.Process.Pid)

	killErr := p.cmd.Process.Kill()

	_ = p.out.close()

	if killErr != nil && !stderrors.Is(killErr, os.ErrProcessDone) {
		return fmt.Errorf("kill process (pid %d): %w", p.cmd.Process.Pid, killErr)
	}

	return nil
}

func (p *Process) isClosing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closing
}
