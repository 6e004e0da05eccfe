// Package logging wraps charmbracelet/log for iptsd's components. A
// subsystem can take its own component-prefixed Logger via With (discovery,
// diagnostics and the dns-sd announcer do), so a log line's origin is
// visible without grepping for call sites; the pipeline and the daemon's
// own messages use the untagged root logger.
package logging

import (
	"fmt"
	"io"
	"os"

	charm "github.com/charmbracelet/log"
)

// Logger is the component-tagged logger every iptsd subsystem writes
// through. It satisfies internal/ipts's Logger interface via Warnf, so a
// *Logger can be assigned directly to Pipeline.Log.
type Logger struct {
	component string
	inner     *charm.Logger
}

// New constructs the root logger, writing to out at the given level
// ("debug", "info", "warn", "error"). An unrecognised level falls back to
// info rather than failing startup over a typo in config.
func New(out io.Writer, level string) *Logger {
	if out == nil {
		out = os.Stderr
	}

	var parsed, err = charm.ParseLevel(level)
	if err != nil {
		parsed = charm.InfoLevel
	}

	var inner = charm.NewWithOptions(out, charm.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
		Level:           parsed,
	})

	return &Logger{inner: inner}
}

// With returns a logger tagged with component, inheriting this logger's
// level and output. Components are composed with a slash, so a sub-logger
// of a sub-logger (e.g. "discovery" then "udev") reads as "discovery/udev".
func (l *Logger) With(component string) *Logger {
	var tag = component
	if l.component != "" {
		tag = l.component + "/" + component
	}

	return &Logger{component: tag, inner: l.inner.With("component", tag)}
}

func (l *Logger) Debugf(format string, args ...any) { l.inner.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.inner.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.inner.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.inner.Error(fmt.Sprintf(format, args...)) }

// Fatalf logs at error level and exits the process with status 1. Reserved
// for cmd/ entrypoints aborting startup; library code should return errors
// instead.
func (l *Logger) Fatalf(format string, args ...any) {
	l.inner.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
