// Package zapadapter provides a logger that writes to a go.uber.org/zap.Logger.
package zapadapter

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pqstep/pqstep"
)

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (pl *Logger) Log(ctx context.Context, level pqstep.LogLevel, msg string, data map[string]interface{}) {
	fields := make([]zapcore.Field, len(data))
	i := 0
	for k, v := range data {
		fields[i] = zap.Any(k, v)
		i++
	}

	switch level {
	case pqstep.LogLevelTrace:
		pl.logger.Debug(msg, append(fields, zap.Stringer("PQSTEP_LOG_LEVEL", level))...)
	case pqstep.LogLevelDebug:
		pl.logger.Debug(msg, fields...)
	case pqstep.LogLevelInfo:
		pl.logger.Info(msg, fields...)
	case pqstep.LogLevelWarn:
		pl.logger.Warn(msg, fields...)
	case pqstep.LogLevelError:
		pl.logger.Error(msg, fields...)
	default:
		pl.logger.Error(msg, append(fields, zap.Stringer("INVALID_PQSTEP_LOG_LEVEL", level))...)
	}
}
