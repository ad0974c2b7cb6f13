package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog logger that remembers the service it logs for.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New builds a logger writing to cfg.Output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter builds a logger writing to w: console lines when Format is
// console or pretty, JSON otherwise. An unknown level means info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	var zl zerolog.Logger
	if isConsole(cfg.Format) {
		zl = newConsole(w, service, cfg.NoColor)
	} else {
		zl = zerolog.New(w)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	c := zl.Level(level).With()
	if cfg.Timestamp {
		c = c.Timestamp()
	}
	if cfg.Caller {
		c = c.Caller()
	}
	return &Logger{zl: c.Logger(), service: service}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), service: "nop"}
}

func (l *Logger) derive(c zerolog.Context) *Logger {
	return &Logger{zl: c.Logger(), service: l.service}
}

// WithComponent tags every entry with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name))
}

// WithFields adds fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(l.zl.With().Fields(fields))
}

// WithError adds err to every entry.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err))
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]any) { emit(l.zl.Fatal(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields []map[string]any) {
	for _, f := range fields {
		e.Fields(f)
	}
	e.Msg(msg)
}

var global atomic.Pointer[Logger]

// Init replaces the global logger from cfg and sets the process-wide level.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	service := cfg.ServiceName
	if service == "" {
		service = "default"
	}
	l := New(cfg, service)
	global.Store(l)

	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	log.Logger = l.zl
}

// GetGlobalLogger returns the logger Init set up, or a console logger at
// info level before that.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := &Config{}
	cfg.ApplyDefaults()
	l := New(cfg, "default")
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

func Debug(msg string, fields ...map[string]any) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]any) { GetGlobalLogger().Fatal(msg, fields...) }

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}
