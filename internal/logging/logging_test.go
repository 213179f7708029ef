package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rfielding/boolnet-ctl/internal/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New(config.LoggingConfig{Level: "warn", Format: "console"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}
