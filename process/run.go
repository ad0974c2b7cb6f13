package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Run starts cmd and blocks until it exits. Without a Stdin reader the
// process sees end of input straight away. Cancelling ctx terminates the
// process group the same way Handle.Terminate does.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	h, err := Start(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if in := h.Stdin(); in != nil {
		_ = in.Close()
	}
	res, err := h.Wait()
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("process: killed by context: %w", ctx.Err())
	}
	return res, err
}

// newCmd places the child in its own process group so that encoder
// helpers it forks are signalled with it.
func newCmd(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // the binary comes from config
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return signalGroup(c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.grace()
	return c
}

func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}
