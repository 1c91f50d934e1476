package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pityka/tilth/pkg/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	// Test loading with no config file (should use defaults).
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	// Check default values.
	assert.Equal(t, 1500, cfg.Read.TokenBudget)
	assert.Equal(t, 2, cfg.Read.SiblingHopBudget)
	assert.True(t, cfg.Read.StripComments)
	assert.Equal(t, 2048, cfg.Cache.OutlineEntries)
	assert.Equal(t, 4096, cfg.Cache.BloomEntries)
	assert.False(t, cfg.Edit.Enabled)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	// Create a temporary config file.
	configContent := `
read:
  token_budget: 900
  sibling_hop_budget: 1

edit:
  enabled: true

cache:
  directory: "/tmp/test-cache"
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-config-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	// Load config from file.
	cfg, loadErr := config.LoadConfig(tmpFile.Name())
	require.NoError(t, loadErr)

	// Check custom values.
	assert.Equal(t, 900, cfg.Read.TokenBudget)
	assert.Equal(t, 1, cfg.Read.SiblingHopBudget)
	assert.True(t, cfg.Edit.Enabled)
	assert.Equal(t, "/tmp/test-cache", cfg.Cache.Directory)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	// Set environment variables.
	t.Setenv("TILTH_READ_TOKEN_BUDGET", "900")
	t.Setenv("TILTH_EDIT_ENABLED", "true")
	t.Setenv("TILTH_CACHE_DIRECTORY", "/tmp/env-cache")

	// Load config (should pick up environment variables).
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	// Check environment variable values.
	assert.Equal(t, 900, cfg.Read.TokenBudget)
	assert.True(t, cfg.Edit.Enabled)
	assert.Equal(t, "/tmp/env-cache", cfg.Cache.Directory)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	// Test valid configuration.
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Test that loading with all defaults passes validation.
	assert.Equal(t, 1500, cfg.Read.TokenBudget)
	assert.Equal(t, 2048, cfg.Cache.OutlineEntries)
	assert.Equal(t, 4096, cfg.Cache.BloomEntries)
}

func TestLoadConfig_RejectsNonPositiveTokenBudget(t *testing.T) {
	t.Parallel()

	configContent := `
read:
  token_budget: 0
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-invalid-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	_, loadErr := config.LoadConfig(tmpFile.Name())
	require.ErrorIs(t, loadErr, config.ErrInvalidTokenBudget)
}

func TestLoadConfig_RejectsMetricsAddrWithoutPort(t *testing.T) {
	t.Parallel()

	configContent := `
otel:
  metrics_addr: "localhost"
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-invalid-addr-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	_, loadErr := config.LoadConfig(tmpFile.Name())
	require.ErrorIs(t, loadErr, config.ErrInvalidMetricsAddr)
}

func TestLoadConfig_LoggingDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_OTELHeaders(t *testing.T) {
	t.Parallel()

	configContent := `
otel:
  endpoint: "localhost:4317"
  insecure: true
  metrics_addr: ":9090"
`

	tmpDir := t.TempDir()

	tmpFile, err := os.CreateTemp(tmpDir, "test-otel-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(configContent)
	require.NoError(t, writeErr)

	tmpFile.Close()

	cfg, loadErr := config.LoadConfig(tmpFile.Name())
	require.NoError(t, loadErr)

	assert.Equal(t, "localhost:4317", cfg.OTEL.Endpoint)
	assert.True(t, cfg.OTEL.Insecure)
	assert.Equal(t, ":9090", cfg.OTEL.MetricsAddr)
}
