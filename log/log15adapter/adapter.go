// Package log15adapter provides a logger that writes to a github.com/inconshreveable/log15.Logger
// log.
package log15adapter

import (
	"context"

	"github.com/pqstep/pqstep"
)

// Log15Logger interface defines the subset of
// github.com/inconshreveable/log15.Logger that this adapter uses.
type Log15Logger interface {
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type Logger struct {
	l Log15Logger
}

func NewLogger(l Log15Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pqstep.LogLevel, msg string, data map[string]interface{}) {
	logCtx := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		logCtx = append(logCtx, k, v)
	}

	switch level {
	case pqstep.LogLevelTrace:
		l.l.Debug(msg, append(logCtx, "PQSTEP_LOG_LEVEL", level)...)
	case pqstep.LogLevelDebug:
		l.l.Debug(msg, logCtx...)
	case pqstep.LogLevelInfo:
		l.l.Info(msg, logCtx...)
	case pqstep.LogLevelWarn:
		l.l.Warn(msg, logCtx...)
	case pqstep.LogLevelError:
		l.l.Error(msg, logCtx...)
	default:
		l.l.Error(msg, append(logCtx, "INVALID_PQSTEP_LOG_LEVEL", level)...)
	}
}
