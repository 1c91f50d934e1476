package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pityka/tilth/pkg/config"
)

const (
	testTokenBudget  = 800
	testHopBudget    = 1
	testOutlineCap   = 512
	testBloomCap     = 1024
	testGranularity  = 60
	testEnvTokenBdgt = 32
)

func TestLoadConfig_NoFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	cfg, err := config.LoadConfig(emptyPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 1500, cfg.Read.TokenBudget)
	assert.Equal(t, 2, cfg.Read.SiblingHopBudget)
	assert.True(t, cfg.Read.StripComments)
	assert.Equal(t, 2048, cfg.Cache.OutlineEntries)
	assert.Equal(t, 4096, cfg.Cache.BloomEntries)
	assert.False(t, cfg.Edit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tilth.yaml")
	content := `read:
  token_budget: 800
  sibling_hop_budget: 1
  strip_comments: false
cache:
  outline_entries: 512
  bloom_entries: 1024
  directory: "/tmp/tilth-cache"
edit:
  enabled: true
logging:
  level: "debug"
  format: "json"
otel:
  endpoint: "collector:4317"
  insecure: true
  metrics_addr: ":9090"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testTokenBudget, cfg.Read.TokenBudget)
	assert.Equal(t, testHopBudget, cfg.Read.SiblingHopBudget)
	assert.False(t, cfg.Read.StripComments)

	assert.Equal(t, testOutlineCap, cfg.Cache.OutlineEntries)
	assert.Equal(t, testBloomCap, cfg.Cache.BloomEntries)
	assert.Equal(t, "/tmp/tilth-cache", cfg.Cache.Directory)

	assert.True(t, cfg.Edit.Enabled)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, "collector:4317", cfg.OTEL.Endpoint)
	assert.True(t, cfg.OTEL.Insecure)
	assert.Equal(t, ":9090", cfg.OTEL.MetricsAddr)
}

func TestLoadConfig_ExplicitPath_Overrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom-config.yaml")
	content := `read:
  token_budget: 2000
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	expectedBudget := 2000

	assert.Equal(t, expectedBudget, cfg.Read.TokenBudget)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	content := `read:
  token_budget: [invalid yaml
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_UnknownKeys_NoError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tilth.yaml")
	content := `unknown_section:
  unknown_key: "value"
read:
  token_budget: 400
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	expectedBudget := 400

	assert.Equal(t, expectedBudget, cfg.Read.TokenBudget)
}

func TestLoadConfig_PartialConfig_MergesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tilth.yaml")
	content := `cache:
  outline_entries: 60
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, testGranularity, cfg.Cache.OutlineEntries)
	assert.Equal(t, 4096, cfg.Cache.BloomEntries)
	assert.Equal(t, 1500, cfg.Read.TokenBudget)
}

func TestLoadConfig_EnvOverride_Read(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	t.Setenv("TILTH_READ_SIBLING_HOP_BUDGET", "32")

	cfg, err := config.LoadConfig(emptyPath)
	require.NoError(t, err)

	assert.Equal(t, testEnvTokenBdgt, cfg.Read.SiblingHopBudget)
}

func TestLoadConfig_EnvOverride_NestedKey(t *testing.T) {
	dir := t.TempDir()
	emptyPath := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(emptyPath, []byte(""), 0o600))

	t.Setenv("TILTH_CACHE_OUTLINE_ENTRIES", "60")

	cfg, err := config.LoadConfig(emptyPath)
	require.NoError(t, err)

	assert.Equal(t, testGranularity, cfg.Cache.OutlineEntries)
}

func TestLoadConfig_ExplicitPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Nil(t, cfg)
}
