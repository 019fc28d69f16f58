package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/locuscode/locus/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	return home
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".locus")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0644))
}

func TestLoadProjectConfig(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	writeProjectConfig(t, tmpDir, `{
		"model": "anthropic/claude-sonnet-4-20250514",
		"provider": {
			"anthropic": {"apiKey": "sk-ant-test123"}
		}
	}`)

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, "sk-ant-test123", cfg.Provider["anthropic"].APIKey)
}

func TestLoadStripsJSONCComments(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	configDir := filepath.Join(tmpDir, ".locus")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := `{
		// line comment
		"model": "openai/gpt-4o", /* inline */
		"provider": {"openai": {"apiKey": "test-key"}}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.jsonc"), []byte(content), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", cfg.Model)
	assert.Equal(t, "test-key", cfg.Provider["openai"].APIKey)
}

func TestLoadWithNoConfigFilesReturnsEmptyConfig(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Model)
}

func TestLoadMergesGlobalThenProject(t *testing.T) {
	home := isolateHome(t)
	tmpProject := t.TempDir()

	globalDir := filepath.Join(home, ".config", "locus")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{
		"model": "global-model",
		"provider": {"anthropic": {"apiKey": "global-key"}}
	}`), 0644))

	writeProjectConfig(t, tmpProject, `{"model": "project-model"}`)

	cfg, err := Load(tmpProject)
	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Model, "project config should win over global")
	assert.Equal(t, "global-key", cfg.Provider["anthropic"].APIKey, "global provider settings should still merge in")
}

func TestLoadEnvOverridesModel(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()
	writeProjectConfig(t, tmpDir, `{"model": "file-model"}`)

	t.Setenv("LOCUS_MODEL", "env-model")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "env-model", cfg.Model)
}

func TestLoadEnvOverridesSmallModel(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("LOCUS_SMALL_MODEL", "env-small-model")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "env-small-model", cfg.SmallModel)
}

func TestLoadEnvDoesNotOverrideExplicitProviderKey(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()
	writeProjectConfig(t, tmpDir, `{"provider": {"anthropic": {"apiKey": "file-key"}}}`)

	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Provider["anthropic"].APIKey)
}

func TestLoadEnvSetsProviderKeyWhenUnset(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider["anthropic"].APIKey)
}

func TestLoadEnvSetsZaiKeyAndDefaultBaseURL(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("ZAI_API_KEY", "zai-key")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "zai-key", cfg.Provider["zai"].APIKey)
	assert.Equal(t, zaiBaseURL, cfg.Provider["zai"].BaseURL)
}

func TestLoadEnvOpenAIBaseURLAndModelOverrides(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("OPENAI_BASE_URL", "https://my-proxy.example.com/v1")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "https://my-proxy.example.com/v1", cfg.Provider["openai"].BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider["openai"].Model)
}

func TestLoadEnvLocusLLMOllamaForcesLocalProvider(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("LOCUS_LLM", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("OLLAMA_MODEL", "qwen2.5-coder")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1", cfg.Provider["ollama"].BaseURL)
	assert.Equal(t, "qwen2.5-coder", cfg.Provider["ollama"].Model)
	assert.NotEmpty(t, cfg.Provider["ollama"].APIKey)
}

func TestLoadEnvLocusLLMOllamaDefaultsBaseURLWhenUnset(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	t.Setenv("LOCUS_LLM", "ollama")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, ollamaBaseURL, cfg.Provider["ollama"].BaseURL)
}

func TestDefaultProviderIDPrefersAnthropicOverOthers(t *testing.T) {
	cfg := &types.Config{Provider: map[string]types.ProviderConfig{
		"anthropic": {APIKey: "a"},
		"openai":    {APIKey: "b"},
	}}
	assert.Equal(t, "anthropic", DefaultProviderID(cfg))
}

func TestDefaultProviderIDFallsBackInOrder(t *testing.T) {
	cfg := &types.Config{Provider: map[string]types.ProviderConfig{
		"zai": {APIKey: "z"},
	}}
	assert.Equal(t, "zai", DefaultProviderID(cfg))
}

func TestDefaultProviderIDEmptyWhenNoneConfigured(t *testing.T) {
	cfg := &types.Config{}
	assert.Equal(t, "", DefaultProviderID(cfg))
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	isolateHome(t)
	tmpDir := t.TempDir()

	cfg := &types.Config{
		Model:      "anthropic/claude-sonnet-4-20250514",
		SmallModel: "anthropic/claude-3-5-haiku-20241022",
		Provider: map[string]types.ProviderConfig{
			"anthropic": {APIKey: "test-key"},
		},
	}

	path := filepath.Join(tmpDir, ".locus", "config.json")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, loaded.Model)
	assert.Equal(t, cfg.SmallModel, loaded.SmallModel)
	assert.Equal(t, "test-key", loaded.Provider["anthropic"].APIKey)
}
