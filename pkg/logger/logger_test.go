package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogger_NopBeforeInit(t *testing.T) {
	assert.NotNil(t, Logger())
	assert.NotNil(t, Sugar())
}

func TestInit_Level(t *testing.T) {
	require.NoError(t, Init("warn"))

	assert.False(t, Logger().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.WarnLevel))
}

func TestInit_BadLevel(t *testing.T) {
	assert.Error(t, Init("ruidoso"))
}
