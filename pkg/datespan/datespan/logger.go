package datespan

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/datespan/pkg/datespan/evaluator"
)

// Logger is an alias for evaluator.Logger for convenience
type Logger = evaluator.Logger

// writerLogger writes trace lines to an io.Writer, each with a prefix.
type writerLogger struct {
	w      io.Writer
	prefix string
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, l.prefix+joinValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, l.prefix+joinValues(values))
}

// WriterLogger returns a logger that writes to w. The CLI passes "[DEBUG] ".
func WriterLogger(w io.Writer, prefix string) Logger {
	return &writerLogger{w: w, prefix: prefix}
}

// BufferedLogger keeps trace lines in memory. Safe for concurrent use.
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	pending strings.Builder
}

// NewBufferedLogger creates an empty buffered logger.
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.WriteString(joinValues(values))
}

// LogLine completes the pending line.
func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.pending.String()+joinValues(values))
	l.pending.Reset()
}

// Lines returns a copy of the completed lines.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// String returns every line, newline terminated, plus any pending text.
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(l.pending.String())
	return sb.String()
}

// Reset drops everything captured so far.
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.pending.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output.
func NullLogger() Logger {
	return nullLogger{}
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
