package logger

import (
	"bytes"
	"testing"

	"quiz-lens/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	defer func() { _ = Initialize(config.LoggerConfig{}) }()

	require.NoError(t, Initialize(config.LoggerConfig{Level: "debug", Env: "production"}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Initialize(config.LoggerConfig{Level: "warn"}))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))

	assert.Error(t, Initialize(config.LoggerConfig{Level: "loud"}))
}

func TestInitialize_WithOutput(t *testing.T) {
	var buf bytes.Buffer
	err := Initialize(config.LoggerConfig{Level: "info", Env: "production"}, WithOutput(zapcore.AddSync(&buf)))
	assert.NoError(t, err)
	t.Cleanup(func() { log = zap.NewNop() })

	Get().Info("Generating quiz...")
	assert.NoError(t, Sync())
	assert.Contains(t, buf.String(), `"msg":"Generating quiz..."`)
}
