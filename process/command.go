package process

import (
	"io"
	"time"
)

// DefaultGracePeriod separates SIGTERM from SIGKILL when a Command sets none.
const DefaultGracePeriod = 5 * time.Second

// Command describes a subprocess, usually the audio transcoder.
type Command struct {
	Binary string // looked up in PATH when not absolute
	Args   []string
	Dir    string
	// Env is appended to the inherited environment.
	Env []string
	// Stdin feeds the process. Left nil, Start opens a pipe reachable via
	// Handle.Stdin and Run closes it at once.
	Stdin       io.Reader
	GracePeriod time.Duration
}

func (c Command) grace() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}
