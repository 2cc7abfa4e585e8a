package kitlogadapter

import (
	"context"

	"github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"

	"github.com/pqstep/pqstep"
)

type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pqstep.LogLevel, msg string, data map[string]interface{}) {
	logger := l.l
	for k, v := range data {
		logger = log.With(logger, k, v)
	}

	switch level {
	case pqstep.LogLevelTrace:
		logger.Log("PQSTEP_LOG_LEVEL", level, "msg", msg)
	case pqstep.LogLevelDebug:
		kitlevel.Debug(logger).Log("msg", msg)
	case pqstep.LogLevelInfo:
		kitlevel.Info(logger).Log("msg", msg)
	case pqstep.LogLevelWarn:
		kitlevel.Warn(logger).Log("msg", msg)
	case pqstep.LogLevelError:
		kitlevel.Error(logger).Log("msg", msg)
	default:
		logger.Log("INVALID_PQSTEP_LOG_LEVEL", level, "error", msg)
	}
}
