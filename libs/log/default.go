package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.MessageFieldName = "_msg"
}

const (
	LogFormatPlain = "plain"
	LogFormatText  = "text"
	LogFormatJSON  = "json"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelError = "error"
	LogLevelNone  = "none"
)

// defaultLogger wraps a zerolog.Logger and implements Logger.
type defaultLogger struct {
	zerolog.Logger
}

// NewDefaultLogger returns a new logger that encodes msg and keyvals to the
// Logger interface. format must be LogFormatJSON or LogFormatPlain/Text,
// and level one of the LogLevel* constants.
func NewDefaultLogger(format, level string) (Logger, error) {
	var zlog zerolog.Logger

	switch strings.ToLower(format) {
	case LogFormatPlain, LogFormatText:
		zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	case LogFormatJSON:
		zlog = zerolog.New(os.Stderr)

	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	zlog = zlog.With().Timestamp().Logger()

	zlvl := zerolog.Disabled
	if strings.ToLower(level) != LogLevelNone {
		var err error
		zlvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level (%s): %w", level, err)
		}
	}

	return &defaultLogger{Logger: zlog.Level(zlvl)}, nil
}

// NewPlainLogger returns a logger that writes to w using the plain text format,
// with a timestamp on every line.
func NewPlainLogger(w io.Writer) Logger {
	return &defaultLogger{
		Logger: zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger(),
	}
}

// NewJSONLogger returns a logger that encodes keyvals as JSON, with a
// timestamp on every line.
func NewJSONLogger(w io.Writer) Logger {
	return &defaultLogger{
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// NewJSONLoggerNoTS is the same as NewJSONLogger except it does not
// append a timestamp to every line. Useful for deterministic test output.
func NewJSONLoggerNoTS(w io.Writer) Logger {
	return &defaultLogger{Logger: zerolog.New(w)}
}

func (l *defaultLogger) Info(msg string, keyvals ...interface{}) {
	l.logEvent(l.Logger.Info(), msg, keyvals...)
}

func (l *defaultLogger) Debug(msg string, keyvals ...interface{}) {
	l.logEvent(l.Logger.Debug(), msg, keyvals...)
}

func (l *defaultLogger) Error(msg string, keyvals ...interface{}) {
	l.logEvent(l.Logger.Error(), msg, keyvals...)
}

func (l *defaultLogger) With(keyvals ...interface{}) Logger {
	return &defaultLogger{Logger: l.Logger.With().Fields(keyvalsToFields(keyvals)).Logger()}
}

func (l *defaultLogger) logEvent(e *zerolog.Event, msg string, keyvals ...interface{}) {
	e.Fields(keyvalsToFields(keyvals)).Msg(msg)
}

func keyvalsToFields(keyvals []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}
		fields[key] = keyvals[i+1]
	}
	return fields
}
