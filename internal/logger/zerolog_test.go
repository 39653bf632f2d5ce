package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "")
	assert.Equal(t, zerolog.WarnLevel, LevelFromEnv("warn"))

	t.Setenv("DEBUG", "1")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv("error"))

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, zerolog.ErrorLevel, LevelFromEnv("debug"))
}

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Error("Precompute", errors.New("boom"), map[string]interface{}{"frame": 7})

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "Precompute", event["component"])
	assert.Equal(t, "boom", event["error"])
	assert.Equal(t, float64(7), event["frame"])
	assert.Equal(t, "error", event["level"])
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("Controller", "hidden", nil)
	log.Info("Controller", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warning("Controller", "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}
