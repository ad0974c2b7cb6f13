package process

import (
	"bytes"
	"time"
)

// Result is what a finished subprocess left behind.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// StderrTail returns at most the last n bytes of stderr, starting at a line
// boundary when one exists. Encoders print a banner before the error that
// matters, so the tail is what gets logged.
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	s := bytes.TrimSpace(r.Stderr)
	if n <= 0 || len(s) <= n {
		return string(s)
	}
	s = s[len(s)-n:]
	if i := bytes.IndexByte(s, '\n'); i >= 0 && i < len(s)-1 {
		s = s[i+1:]
	}
	return string(s)
}
