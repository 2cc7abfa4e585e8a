package zerologadapter_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pqstep/pqstep"
	"github.com/pqstep/pqstep/log/zerologadapter"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	zlogger := zerolog.New(&buf)
	logger := zerologadapter.NewLogger(zlogger)
	logger.Log(context.Background(), pqstep.LogLevelInfo, "hello", map[string]interface{}{"one": "two"})
	const want = `{"level":"info","module":"pqstep","one":"two","message":"hello"}
`
	got := buf.String()
	if got != want {
		t.Errorf("%s != %s", got, want)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level pqstep.LogLevel
		want  string
	}{
		{pqstep.LogLevelError, "error"},
		{pqstep.LogLevelWarn, "warn"},
		{pqstep.LogLevelInfo, "info"},
		{pqstep.LogLevelDebug, "debug"},
		{pqstep.LogLevelTrace, "debug"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := zerologadapter.NewLogger(zerolog.New(&buf))
		logger.Log(context.Background(), tt.level, "x", nil)
		want := `{"level":"` + tt.want + `","module":"pqstep","message":"x"}
`
		if got := buf.String(); got != want {
			t.Errorf("level %v: %s != %s", tt.level, got, want)
		}
	}
}