package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNilConfig(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "shouting"})
	assert.Error(t, err)
}

func TestNewDebugOverridesLevel(t *testing.T) {
	log, err := New(&Config{Level: "warn", Debug: true})
	require.NoError(t, err)
	assert.True(t, log.Debug().Enabled())
}

func TestNewComponentLogger(t *testing.T) {
	log, err := NewComponentLogger(&Config{Level: "info"}, "quickbars-bridge")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewTestLoggerDiscardsEverything(t *testing.T) {
	log := NewTestLogger()
	assert.False(t, log.Error().Enabled())
}
