package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for in, want := range map[string]zapcore.Level{"": zapcore.InfoLevel, "debug": zapcore.DebugLevel, " WARN ": zapcore.WarnLevel} {
		l, err := New(in)
		require.NoError(t, err, in)
		assert.True(t, l.Core().Enabled(want), in)
		assert.False(t, l.Core().Enabled(want-1), in)
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)
	assert.NotNil(t, Must("loud"))
}
