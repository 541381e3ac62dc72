// Package worker talks to model worker processes. A worker is a child
// process that reads one JSON request per line on stdin and writes one
// JSON response per line on stdout; stderr is forwarded to the logger.
//
// Requests to one process are serialised. A request abandoned through its
// context leaves the stream out of step, so the process is killed and
// every later call fails with domain.ErrWorkerClosed.
package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Readiness polling defaults. Loading a model can take tens of seconds.
const (
	DefaultReadyAttempts = 120
	DefaultReadyBackoff  = 500 * time.Millisecond

	shutdownGrace = 2 * time.Second
)

// Config describes how to start a worker.
type Config struct {
	// Name labels log lines and errors.
	Name string

	// Command is the program and its arguments.
	Command []string

	// Dir is the working directory. Empty means the current one.
	Dir string

	// Env replaces the environment when non-nil.
	Env []string

	// ReadyAttempts and ReadyBackoff bound readiness polling.
	ReadyAttempts int
	ReadyBackoff  time.Duration
}

// RemoteError is an error reported by the worker in its response.
type RemoteError struct {
	Worker  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker %s: %s", e.Worker, e.Message)
}

// Process is a running worker.
type Process struct {
	name  string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	lines  chan []byte
	quit   chan struct{}
	exited chan struct{}

	// waitErr is written before exited is closed.
	waitErr error

	mu     sync.Mutex
	closed bool
}

// Start spawns the worker and polls it until it answers a ping.
func Start(ctx context.Context, cfg Config) (*Process, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("%w: worker %s has no command", domain.ErrValidation, cfg.Name)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Command[0]
	}
	if cfg.ReadyAttempts <= 0 {
		cfg.ReadyAttempts = DefaultReadyAttempts
	}
	if cfg.ReadyBackoff <= 0 {
		cfg.ReadyBackoff = DefaultReadyBackoff
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...) //nolint:gosec // command comes from local config
	cmd.Dir = cfg.Dir
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}
	cmd.Stderr = &logWriter{name: cfg.Name}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %s: stdin pipe: %w", cfg.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker %s: stdout pipe: %w", cfg.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("worker %s: start: %w", cfg.Name, err)
	}
	logger.Debug("Started worker %s (pid %d)", cfg.Name, cmd.Process.Pid)

	p := &Process{
		name:   cfg.Name,
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan []byte),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go p.readLoop(bufio.NewReader(stdout))

	if err := p.waitReady(ctx, cfg.ReadyAttempts, cfg.ReadyBackoff); err != nil {
		p.mu.Lock()
		p.killLocked()
		p.mu.Unlock()
		return nil, err
	}
	return p, nil
}

// readLoop forwards stdout lines until EOF, then reaps the process.
func (p *Process) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			break
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		select {
		case p.lines <- line:
		case <-p.quit:
		}
	}
	p.waitErr = p.cmd.Wait()
	close(p.exited)
}

// waitReady sends one ping and waits for any reply. Sending a ping per
// attempt would queue replies that later requests would read.
func (p *Process) waitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	ping, err := json.Marshal(request{Command: commandPing})
	if err != nil {
		return err
	}
	if _, err := p.stdin.Write(append(ping, '\n')); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrWorkerNotReady, p.name, err)
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-p.lines:
			logger.Debug("Worker %s ready after %d attempts", p.name, attempt)
			return nil
		case <-p.exited:
			return fmt.Errorf("%w: %s exited during startup: %v", domain.ErrWorkerNotReady, p.name, p.waitErr)
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			logger.Debug("Waiting for worker %s (attempt %d/%d)", p.name, attempt, attempts)
			timer.Reset(backoff)
		}
	}
	return fmt.Errorf("%w: %s did not answer after %d attempts", domain.ErrWorkerNotReady, p.name, attempts)
}

// Call sends req and decodes the reply into resp. A reply carrying an
// error field is returned as a *RemoteError.
func (p *Process) Call(ctx context.Context, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("worker %s: encode request: %w", p.name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%w: %s", domain.ErrWorkerClosed, p.name)
	}
	if _, err := p.stdin.Write(append(payload, '\n')); err != nil {
		p.killLocked()
		return fmt.Errorf("worker %s: write request: %w", p.name, err)
	}

	var line []byte
	select {
	case line = <-p.lines:
	case <-p.exited:
		p.closed = true
		return fmt.Errorf("%w: %s exited: %v", domain.ErrWorkerClosed, p.name, p.waitErr)
	case <-ctx.Done():
		p.killLocked()
		return ctx.Err()
	}

	var status struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(line, &status); err != nil {
		return fmt.Errorf("worker %s: invalid response %.200q: %w", p.name, line, err)
	}
	if status.Error != "" {
		return &RemoteError{Worker: p.name, Message: status.Error}
	}
	if err := json.Unmarshal(line, resp); err != nil {
		return fmt.Errorf("worker %s: decode response: %w", p.name, err)
	}
	return nil
}

// Name returns the worker's label.
func (p *Process) Name() string {
	return p.name
}

// Close closes stdin, waits briefly for the worker to exit and kills it
// otherwise. Safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.quit)
	_ = p.stdin.Close()

	select {
	case <-p.exited:
	case <-time.After(shutdownGrace):
		logger.Warn("Worker %s did not exit, killing it", p.name)
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
	logger.Debug("Worker %s stopped", p.name)

	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
		return fmt.Errorf("worker %s: %w", p.name, p.waitErr)
	}
	return nil
}

// killLocked stops a worker whose stream can no longer be trusted.
func (p *Process) killLocked() {
	if p.closed {
		return
	}
	p.closed = true
	logger.Warn("Killing worker %s", p.name)
	_ = p.cmd.Process.Kill()
	_ = p.stdin.Close()
	close(p.quit)
}

// logWriter forwards worker stderr to the verbose log.
type logWriter struct {
	name string
}

func (w *logWriter) Write(b []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n")) {
		if len(line) > 0 {
			logger.Debug("[%s] %s", w.name, line)
		}
	}
	return len(b), nil
}
