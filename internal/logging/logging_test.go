package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNewWriterVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, true)
	logger.Debug("generated", zap.String("language", "rust"))

	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "generated")
	assert.Contains(t, buf.String(), `"language": "rust"`)
}

func TestNewWriterQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown")
}
