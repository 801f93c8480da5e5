package log

import "fmt"

// tracingLogger expands error keyvals to their full %+v representation,
// so that github.com/pkg/errors stack traces survive structured logging.
type tracingLogger struct {
	next Logger
}

// NewTracingLogger returns a logger that formats any error-typed value in
// keyvals with "%+v" instead of its default Error() string, preserving
// stack traces attached via github.com/pkg/errors.
func NewTracingLogger(next Logger) Logger {
	return &tracingLogger{next: next}
}

func (l *tracingLogger) Debug(msg string, keyvals ...interface{}) {
	l.next.Debug(msg, expandErrors(keyvals)...)
}

func (l *tracingLogger) Info(msg string, keyvals ...interface{}) {
	l.next.Info(msg, expandErrors(keyvals)...)
}

func (l *tracingLogger) Error(msg string, keyvals ...interface{}) {
	l.next.Error(msg, expandErrors(keyvals)...)
}

func (l *tracingLogger) With(keyvals ...interface{}) Logger {
	return &tracingLogger{next: l.next.With(expandErrors(keyvals)...)}
}

func expandErrors(keyvals []interface{}) []interface{} {
	out := make([]interface{}, len(keyvals))
	copy(out, keyvals)
	for i := 1; i < len(out); i += 2 {
		if err, ok := out[i].(error); ok {
			out[i] = fmt.Sprintf("%+v", err)
		}
	}
	return out
}
