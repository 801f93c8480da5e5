package log

import (
	"github.com/rs/zerolog"
)

// NewNopLogger returns a logger that never writes anything.
func NewNopLogger() Logger {
	return &defaultLogger{
		Logger: zerolog.Nop(),
	}
}
