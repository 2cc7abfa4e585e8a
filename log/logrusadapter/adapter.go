// Package logrusadapter provides a logger that writes to a github.com/sirupsen/logrus.Logger
// log.
package logrusadapter

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pqstep/pqstep"
)

type Logger struct {
	l logrus.FieldLogger
}

func NewLogger(l logrus.FieldLogger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pqstep.LogLevel, msg string, data map[string]interface{}) {
	var logger logrus.FieldLogger
	if data != nil {
		logger = l.l.WithFields(data)
	} else {
		logger = l.l
	}

	switch level {
	case pqstep.LogLevelTrace:
		logger.WithField("PQSTEP_LOG_LEVEL", level).Debug(msg)
	case pqstep.LogLevelDebug:
		logger.Debug(msg)
	case pqstep.LogLevelInfo:
		logger.Info(msg)
	case pqstep.LogLevelWarn:
		logger.Warn(msg)
	case pqstep.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("INVALID_PQSTEP_LOG_LEVEL", level).Error(msg)
	}
}
