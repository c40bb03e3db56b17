package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "info")
	log.Debug("hidden")
	log.Info("flight created", "flight_no", "LH4821")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "flight created", rec["msg"])
	assert.Equal(t, "LH4821", rec["flight_no"])
	assert.Equal(t, "airline-reservation", rec["service"])
}

func TestDevelopmentLoggerWritesText(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter(&buf, "development", "debug").Debug("seat released", "seat", "1A")
	assert.Contains(t, buf.String(), `msg="seat released"`)
	assert.Contains(t, buf.String(), "seat=1A")
}
