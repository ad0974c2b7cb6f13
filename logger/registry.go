package logger

import "sync"

// named holds loggers registered under a name, usually a component.
var named sync.Map // string -> *Logger

// Register makes l the logger Get returns for name.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get returns the logger registered for name. Unregistered names get the
// current global logger tagged with name; the result is not cached, so a
// later Init still applies.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
