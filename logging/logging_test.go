package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(t *testing.T, level string) (*log.Logger, *bytes.Buffer) {
	t.Helper()

	logger := log.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	require.NoError(t, Configure(logger, level, "json"))
	return logger, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &payload))
	return payload
}

func TestConfigureJSONAddsSeverity(t *testing.T) {
	t.Parallel()

	logger, buf := jsonLogger(t, "trace")

	tests := []struct {
		log  func(args ...any)
		want string
	}{
		{logger.Error, "ERROR"},
		{logger.Warn, "WARNING"},
		{logger.Info, "INFO"},
		{logger.Debug, "DEBUG"},
		{logger.Trace, "DEBUG"},
	}

	for _, tt := range tests {
		tt.log("hello")
		assert.Equal(t, tt.want, lastEntry(t, buf)["severity"])
	}
}

func TestConfigureJSONKeepsFields(t *testing.T) {
	t.Parallel()

	logger, buf := jsonLogger(t, "debug")
	logger.WithField("engine", "stockfish").Debug("hello")

	payload := lastEntry(t, buf)
	assert.Equal(t, "DEBUG", payload["severity"])
	assert.Equal(t, "stockfish", payload["engine"])
}

func TestConfigureRespectsExistingSeverity(t *testing.T) {
	t.Parallel()

	logger, buf := jsonLogger(t, "info")
	logger.WithField("severity", "NOTICE").Info("hello")

	assert.Equal(t, "NOTICE", lastEntry(t, buf)["severity"])
}

func TestConfigureRejectsBadInput(t *testing.T) {
	t.Parallel()

	assert.Error(t, Configure(log.New(), "loud", "text"))
	assert.Error(t, Configure(log.New(), "info", "xml"))

	logger := log.New()
	require.NoError(t, Configure(logger, "warn", ""))
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
}
