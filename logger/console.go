package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

// levelStyle is the short tag and color of each level in console output.
var levelStyle = map[string]struct{ tag, color string }{
	"trace": {"TRC", ""},
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

func isConsole(format string) bool {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return true
	}
	return false
}

func paint(s, color string, noColor bool) string {
	if noColor || color == "" {
		return s
	}
	return color + s + ansiReset
}

// newConsole writes "15:04:05 [MIN][INF] message key:value" lines. The
// service prefix is the first three letters of its name.
func newConsole(w io.Writer, service string, noColor bool) zerolog.Logger {
	prefix := ""
	if len(service) >= 3 && service != "default" {
		prefix = paint("["+strings.ToUpper(service[:3])+"]", ansiBlue, noColor)
	}
	text := func(i any) string {
		if i == nil {
			return ""
		}
		return fmt.Sprint(i)
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		FormatLevel: func(i any) string {
			name := strings.ToLower(fmt.Sprint(i))
			style, ok := levelStyle[name]
			if !ok {
				style.tag = strings.ToUpper(name)
			}
			return prefix + paint("["+style.tag+"]", style.color, noColor)
		},
		FormatMessage:    text,
		FormatFieldName:  func(i any) string { return fmt.Sprint(i) + ":" },
		FormatFieldValue: text,
	})
}
