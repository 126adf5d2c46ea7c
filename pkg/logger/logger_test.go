package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestComponentAndOperationFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf).Component("completion").WithOperation("complete", "abc")

	log.Info().Uint("user_id", 7).Msg("Challenge completed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "completion", entry["component"])
	assert.Equal(t, "complete", entry["op"])
	assert.Equal(t, "abc", entry["op_id"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Equal(t, "Challenge completed", entry["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Component("x").Error().Msg("discarded")
	})
}
