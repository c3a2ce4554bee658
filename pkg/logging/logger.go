package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It wraps the standard
// library's logger, so it respects any flags set on it. It is safe for
// concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the minimum level this logger (and its subloggers) will emit.
	level Level
	// color indicates whether warn/error output should be colorized. It is
	// resolved once, at root-logger construction, rather than probed on every
	// call, so that tests which redirect stdout/stderr get stable output.
	color bool
}

// RootLogger is a ready-to-use root logger that writes to the process's
// standard error stream at LevelInfo, colorizing output only if standard
// error is attached to a terminal.
var RootLogger = NewRoot(LevelInfo)

// NewRoot creates a new root logger at the given level. Output is colorized
// only when os.Stderr is a terminal, per github.com/mattn/go-isatty.
func NewRoot(level Level) *Logger {
	return &Logger{
		level: level,
		color: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{
		prefix: prefix,
		level:  l.level,
		color:  l.color,
	}
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Print logs information with semantics equivalent to fmt.Print, gated at
// LevelInfo.
func (l *Logger) Print(v ...interface{}) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprint(v...))
	}
}

// Printf logs information with semantics equivalent to fmt.Printf, gated at
// LevelInfo.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Println logs information with semantics equivalent to fmt.Println, gated at
// LevelInfo.
func (l *Logger) Println(v ...interface{}) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: l.Println}
}

// Debug logs information with semantics equivalent to fmt.Print, but only if
// the logger's level is at least LevelDebug.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only
// if the logger's level is at least LevelDebug.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debug.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{callback: l.Debug}
}

// Warn logs error information with a warning prefix, colorized yellow when
// the root logger detected a terminal.
func (l *Logger) Warn(err error) {
	if l == nil || l.level < LevelWarn {
		return
	}
	if l.color {
		l.output(3, color.YellowString("warning: %v", err))
	} else {
		l.output(3, fmt.Sprintf("warning: %v", err))
	}
}

// Warnf formats and logs a warning.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.Warn(fmt.Errorf(format, v...))
}

// Error logs error information with an error prefix, colorized red when the
// root logger detected a terminal.
func (l *Logger) Error(err error) {
	if l == nil || l.level < LevelError {
		return
	}
	if l.color {
		l.output(3, color.RedString("error: %v", err))
	} else {
		l.output(3, fmt.Sprintf("error: %v", err))
	}
}

// Sizef logs an informational message with a humanized byte count
// substituted for %s, e.g. Sizef("wrote custody cache (%s)", n).
func (l *Logger) Sizef(format string, bytes uint64) {
	l.Printf(format, humanize.Bytes(bytes))
}
