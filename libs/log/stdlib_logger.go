package log

import (
	"fmt"
	"io"
	stdlog "log"
	"strings"
)

// stdlibLogger adapts the standard library's log.Logger to the Logger
// interface. Useful for short-lived CLI tools that do not need structured
// output.
type stdlibLogger struct {
	std     *stdlog.Logger
	keyvals []interface{}
}

// NewStdLibLogger returns a Logger backed by a standard library *log.Logger
// configured with the given prefix and flag bits (see the log package).
func NewStdLibLogger(w io.Writer, prefix string, flag int) Logger {
	return &stdlibLogger{std: stdlog.New(w, prefix, flag)}
}

func (l *stdlibLogger) Debug(msg string, keyvals ...interface{}) { l.print("debug", msg, keyvals) }
func (l *stdlibLogger) Info(msg string, keyvals ...interface{})  { l.print("info", msg, keyvals) }
func (l *stdlibLogger) Error(msg string, keyvals ...interface{}) { l.print("error", msg, keyvals) }

func (l *stdlibLogger) With(keyvals ...interface{}) Logger {
	return &stdlibLogger{std: l.std, keyvals: append(append([]interface{}{}, l.keyvals...), keyvals...)}
}

func (l *stdlibLogger) print(level, msg string, keyvals []interface{}) {
	all := append(append([]interface{}{}, l.keyvals...), keyvals...)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", level, msg)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}

	l.std.Print(b.String())
}
