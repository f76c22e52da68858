package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbars/bridge/pkg/logger"
)

var errBadTestConfig = errors.New("port must be positive")

type testConfig struct {
	Name string `json:"name"`
	Port int    `json:"port"`

	validated bool
}

func (c *testConfig) Validate() error {
	c.validated = true

	if c.Port <= 0 {
		return errBadTestConfig
	}

	return nil
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateFromFile(t *testing.T) {
	path := writeConfigFile(t, `{"name": "bridge", "port": 9123}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))
	assert.Equal(t, "bridge", cfg.Name)
	assert.Equal(t, 9123, cfg.Port)
	assert.True(t, cfg.validated)
}

func TestLoadAndValidateRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `{"name": "bridge", "port": -1}`)

	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)
	assert.ErrorIs(t, err, errBadTestConfig)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(
		context.Background(), filepath.Join(t.TempDir(), "absent.json"), &cfg)
	assert.Error(t, err)
}

func TestLoadAndValidateMalformedJSON(t *testing.T) {
	path := writeConfigFile(t, `{"name": `)

	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)
	assert.Error(t, err)
}

func TestLoadAndValidateFromEnv(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("QUICKBARS_CONFIG_JSON", `{"name": "bridge", "port": 9123}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "bridge", cfg.Name)
}

func TestLoadAndValidateEnvPrefixOverride(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "QB_")
	t.Setenv("QB_CONFIG_JSON", `{"name": "bridge", "port": 9123}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "bridge", cfg.Name)
}

func TestLoadAndValidateEnvMissingVariable(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("QUICKBARS_CONFIG_JSON", "")

	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg)
	assert.Error(t, err)
}

func TestLoadAndValidateInvalidSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg)
	assert.ErrorIs(t, err, errInvalidConfigSource)
}
