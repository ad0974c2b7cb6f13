package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/minutes/logger"
)

// Option adjusts NewApp.
type Option func(*appOptions)

type appOptions struct {
	log     *logger.Logger
	grace   time.Duration
	summary io.Writer
}

func resolveOptions(opts []Option) appOptions {
	o := appOptions{grace: DefaultGracefulTimeout}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// WithLogger replaces the logger built from the logging config section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.log = l }
}

// WithGracefulTimeout bounds the whole shutdown. Non-positive values keep
// DefaultGracefulTimeout.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		if d > 0 {
			o.grace = d
		}
	}
}

// WithSummaryOutput redirects the startup summary, which goes to stdout
// otherwise.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) { o.summary = w }
}
