package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goliatone/go-profile/profile"
)

// ConsoleLogger writes leveled lines to a writer.
type ConsoleLogger struct {
	prefix string
	debug  bool

	mu  sync.Mutex
	out io.Writer
}

var _ profile.Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger creates a logger. A nil writer logs to stderr.
func NewConsoleLogger(prefix string, out io.Writer) *ConsoleLogger {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleLogger{prefix: prefix, out: out}
}

// SetDebug toggles debug lines.
func (l *ConsoleLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *ConsoleLogger) Debugf(format string, args ...any) {
	l.mu.Lock()
	enabled := l.debug
	l.mu.Unlock()
	if enabled {
		l.write("DEBUG", format, args...)
	}
}

func (l *ConsoleLogger) Infof(format string, args ...any) {
	l.write("INFO", format, args...)
}

func (l *ConsoleLogger) Errorf(format string, args ...any) {
	l.write("ERROR", format, args...)
}

func (l *ConsoleLogger) write(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s: %s\n", level, l.prefix, fmt.Sprintf(format, args...))
}
