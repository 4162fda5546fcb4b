package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Logger is the contract criteria, processors and machines log through.
// Messages use Printf-style formatting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry structured fields.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

// NormalizeLogger returns logger, or an FmtLogger on stdout when nil. Every
// constructor in this module runs its injected logger through it, so a nil
// logger is always safe to pass.
func NormalizeLogger(logger Logger) Logger {
	if logger == nil {
		return NewFmtLogger(nil)
	}
	return logger
}

// WithLoggerFields attaches fields when the logger supports them and
// returns the logger unchanged otherwise.
func WithLoggerFields(logger Logger, fields map[string]any) Logger {
	if logger == nil {
		return NewFmtLogger(nil)
	}
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}

// FmtLogger is the zero-configuration fallback: timestamped lines on a
// writer, fields appended as sorted key=value pairs.
type FmtLogger struct {
	out    io.Writer
	ctx    context.Context
	fields map[string]any
}

// NewFmtLogger builds a fallback logger. A nil writer means stdout.
func NewFmtLogger(out io.Writer) *FmtLogger {
	if out == nil {
		out = os.Stdout
	}
	return &FmtLogger{out: out, ctx: context.Background()}
}

func (l *FmtLogger) Debug(msg string, args ...any) { l.emit("DEBUG", msg, args...) }
func (l *FmtLogger) Info(msg string, args ...any)  { l.emit("INFO", msg, args...) }
func (l *FmtLogger) Warn(msg string, args ...any)  { l.emit("WARN", msg, args...) }
func (l *FmtLogger) Error(msg string, args ...any) { l.emit("ERROR", msg, args...) }

func (l *FmtLogger) WithContext(ctx context.Context) Logger {
	if l == nil {
		return NewFmtLogger(nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cp := *l
	cp.ctx = ctx
	return &cp
}

// WithFields returns a shallow copy carrying the merged field set. Later
// keys win.
func (l *FmtLogger) WithFields(fields map[string]any) Logger {
	if l == nil {
		return NewFmtLogger(nil)
	}
	cp := *l
	if merged := len(l.fields) + len(fields); merged > 0 {
		cp.fields = make(map[string]any, merged)
		for k, v := range l.fields {
			cp.fields[k] = v
		}
		for k, v := range fields {
			cp.fields[k] = v
		}
	}
	return &cp
}

func (l *FmtLogger) emit(level, msg string, args ...any) {
	if l == nil {
		l = NewFmtLogger(nil)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, " %-5s %s", level, strings.TrimSpace(msg))

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
	}
	fmt.Fprintln(l.out, b.String())
}
