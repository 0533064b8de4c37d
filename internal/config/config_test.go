package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/pkg/types"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.StorageEngine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 0.5, cfg.LLM.RateLimitRPS)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RECALL_STORAGE_ENGINE", "postgres")
	t.Setenv("RECALL_POSTGRES_DSN", "postgres://localhost/recall")
	t.Setenv("RECALL_LLM_PROVIDER", "ollama")
	t.Setenv("RECALL_LLM_RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.StorageEngine)
	assert.Equal(t, "postgres://localhost/recall", cfg.Storage.PostgresDSN)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 2.5, cfg.LLM.RateLimitRPS)
}

func TestLoadConfig_BadFloatFallsBack(t *testing.T) {
	t.Setenv("RECALL_LLM_RATE_LIMIT_RPS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.LLM.RateLimitRPS)
}

func TestDefaultAppConfig(t *testing.T) {
	cfg := DefaultAppConfig()

	assert.True(t, cfg.RuleActive(types.RuleTaskRequiresContext))
	assert.True(t, cfg.RuleActive(types.RuleEntityVagueIncomplete))
	// Unknown codes count as active; deactivation must be explicit.
	assert.True(t, cfg.RuleActive("NO_SUCH_RULE"))

	names := make([]string, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		names[i] = cat.Name
	}
	assert.Contains(t, names, "Meeting")
	assert.Contains(t, names, "CRM")
}

func TestAppConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appconfig.yaml")

	original := DefaultAppConfig()
	original.QuickActions = []string{"weekly review"}
	require.NoError(t, SaveAppConfigFile(path, original))

	loaded, err := LoadAppConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadAppConfigFile_Missing(t *testing.T) {
	_, err := LoadAppConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
