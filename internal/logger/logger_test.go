package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Mohsinsiddi/tscsale/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", false)
	log.Info().Str("flow_id", "abc").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "abc", entry["flow_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "error", false)
	log.Warn().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestUnknownLevelFallsBackToWarn(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{}, "loud", false)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log = logger.NewWithWriter(&bytes.Buffer{}, "", false)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", true)
	log.Debug().Msg("console")
	assert.Contains(t, buf.String(), "console")
	assert.NotContains(t, buf.String(), "{")
}
