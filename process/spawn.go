package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Handle is a running subprocess started with Start.
type Handle struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	grace time.Duration
	start time.Time

	stdout bytes.Buffer
	stderr bytes.Buffer

	done     chan struct{}
	result   *Result
	err      error
	termOnce sync.Once
}

// Start launches cmd without waiting for it to exit. The process runs until
// its stdin is closed and it exits on its own, Terminate is called, or ctx is
// canceled.
func Start(ctx context.Context, cmd Command) (*Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	c := newCmd(ctx, cmd)
	h := &Handle{
		cmd:   c,
		grace: cmd.grace(),
		done:  make(chan struct{}),
	}
	c.Stdout = &h.stdout
	c.Stderr = &h.stderr

	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	} else {
		w, err := c.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("process: stdin pipe: %w", err)
		}
		h.stdin = w
	}

	h.start = time.Now()
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	go h.wait()
	return h, nil
}

func (h *Handle) wait() {
	err := h.cmd.Wait()
	h.result = &Result{
		Stdout:   h.stdout.Bytes(),
		Stderr:   h.stderr.Bytes(),
		ExitCode: h.cmd.ProcessState.ExitCode(),
		Duration: time.Since(h.start),
	}
	if err != nil {
		h.err = fmt.Errorf("process: exit code %d: %w", h.result.ExitCode, err)
	}
	close(h.done)
}

// Pid returns the process ID, which is also its process group ID.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Stdin returns the write end of the process stdin, or nil when the
// Command supplied its own reader. Closing it signals end of input.
func (h *Handle) Stdin() io.WriteCloser {
	return h.stdin
}

// Done is closed once the process has exited and its output is collected.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits.
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	return h.result, h.err
}

// Exited reports whether the process has already exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Terminate sends SIGTERM to the process group and SIGKILL after the grace
// period if it is still running. It returns immediately; use Wait or Done to
// observe the exit. Repeated calls are no-ops.
func (h *Handle) Terminate() {
	h.termOnce.Do(func() {
		if h.Exited() {
			return
		}
		pid := h.cmd.Process.Pid
		_ = signalGroup(pid, syscall.SIGTERM)
		go func() {
			timer := time.NewTimer(h.grace)
			defer timer.Stop()
			select {
			case <-h.done:
			case <-timer.C:
				_ = signalGroup(pid, syscall.SIGKILL)
			}
		}()
	})
}
