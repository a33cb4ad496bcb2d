package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-gost/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(
		NameOption("trust"),
		OutputOption(&buf),
		FieldsOption(map[string]any{"node": 3}),
	)

	log.WithFields(map[string]any{"peer": 9}).Infof("node %d added to blacklist", 9)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trust", entry["logger"])
	assert.Equal(t, float64(3), entry["node"])
	assert.Equal(t, float64(9), entry["peer"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "node 9 added to blacklist", entry["msg"])
	assert.NotContains(t, entry, "caller")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(OutputOption(&buf), LevelOption(logger.WarnLevel), FormatOption(logger.TextFormat))

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Equal(t, logger.WarnLevel, log.GetLevel())
	assert.True(t, log.IsLevelEnabled(logger.ErrorLevel))
	assert.False(t, log.IsLevelEnabled(logger.DebugLevel))
}

func TestLoggerDebugCaller(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(OutputOption(&buf), LevelOption(logger.DebugLevel))

	log.Debug("with caller")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	caller, _ := entry["caller"].(string)
	assert.True(t, strings.HasPrefix(caller, "logger/logger_test.go:"), caller)
}

func TestLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger(OutputOption(&bytes.Buffer{}), LevelOption("verbose"))
	assert.Equal(t, logger.InfoLevel, log.GetLevel())
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.Same(t, log, log.WithFields(map[string]any{"a": 1}))
	assert.False(t, log.IsLevelEnabled(logger.ErrorLevel))
	log.Errorf("discarded %d", 1)
}
