// Package zerologadapter provides a logger that writes to a github.com/rs/zerolog.
package zerologadapter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pqstep/pqstep"
)

type Logger struct {
	logger zerolog.Logger
}

// NewLogger accepts a zerolog.Logger as input and returns a new custom
// logging fascade as output.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("module", "pqstep").Logger(),
	}
}

func (pl *Logger) Log(ctx context.Context, level pqstep.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case pqstep.LogLevelNone:
		zlevel = zerolog.NoLevel
	case pqstep.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case pqstep.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case pqstep.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case pqstep.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	log := pl.logger.With().Fields(data).Logger()
	log.WithLevel(zlevel).Msg(msg)
}
