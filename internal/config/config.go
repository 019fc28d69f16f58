package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/locuscode/locus/pkg/types"
)

// Load resolves configuration in priority order: global config
// (~/.config/locus/config.json), project config (.locus/config.json), then
// environment variable overrides.
func Load(directory string) (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
	}

	globalPath := GetPaths().Config
	loadConfigFile(filepath.Join(globalPath, "config.json"), config)
	loadConfigFile(filepath.Join(globalPath, "config.jsonc"), config)

	if directory != "" {
		loadConfigFile(filepath.Join(directory, ".locus", "config.json"), config)
		loadConfigFile(filepath.Join(directory, ".locus", "config.jsonc"), config)
	}

	applyEnvOverrides(config)

	return config, nil
}

func loadConfigFile(path string, config *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = stripJSONComments(data)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// stripJSONComments removes // and /* */ comments from JSONC.
func stripJSONComments(data []byte) []byte {
	singleLine := regexp.MustCompile(`//.*$`)
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = singleLine.ReplaceAll(line, nil)
	}
	data = bytes.Join(lines, []byte("\n"))

	multiLine := regexp.MustCompile(`/\*[\s\S]*?\*/`)
	return multiLine.ReplaceAll(data, nil)
}

func mergeConfig(target, source *types.Config) {
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.SmallModel != "" {
		target.SmallModel = source.SmallModel
	}
	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]types.ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}
}

// zaiBaseURL is Z.ai's OpenAI-compatible endpoint, used when ZAI_API_KEY is
// set and no provider-specific base URL has been configured.
const zaiBaseURL = "https://api.z.ai/api/paas/v4"

// ollamaBaseURL is Ollama's default OpenAI-compatible local endpoint.
const ollamaBaseURL = "http://localhost:11434/v1"

// applyEnvOverrides applies LOCUS_*/provider-native environment variables,
// the highest-priority configuration source.
func applyEnvOverrides(config *types.Config) {
	providerEnvMap := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
		"zai":       "ZAI_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			setAPIKey(config, provider, apiKey)
		}
	}

	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		setBaseURL(config, "openai", baseURL)
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		setModel(config, "openai", model)
	}
	if _, zaiConfigured := config.Provider["zai"]; zaiConfigured {
		setBaseURLIfEmpty(config, "zai", zaiBaseURL)
	}

	if strings.EqualFold(os.Getenv("LOCUS_LLM"), "ollama") {
		setAPIKey(config, "ollama", "ollama")
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}
		setBaseURL(config, "ollama", baseURL)
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			setModel(config, "ollama", model)
		}
	}

	if model := os.Getenv("LOCUS_MODEL"); model != "" {
		config.Model = model
	}
	if smallModel := os.Getenv("LOCUS_SMALL_MODEL"); smallModel != "" {
		config.SmallModel = smallModel
	}
}

func setAPIKey(config *types.Config, provider, apiKey string) {
	if config.Provider == nil {
		config.Provider = make(map[string]types.ProviderConfig)
	}
	p := config.Provider[provider]
	if p.APIKey == "" {
		p.APIKey = apiKey
		config.Provider[provider] = p
	}
}

func setBaseURL(config *types.Config, provider, baseURL string) {
	if config.Provider == nil {
		config.Provider = make(map[string]types.ProviderConfig)
	}
	p := config.Provider[provider]
	p.BaseURL = baseURL
	config.Provider[provider] = p
}

func setBaseURLIfEmpty(config *types.Config, provider, baseURL string) {
	p := config.Provider[provider]
	if p.BaseURL == "" {
		p.BaseURL = baseURL
		config.Provider[provider] = p
	}
}

func setModel(config *types.Config, provider, model string) {
	if config.Provider == nil {
		config.Provider = make(map[string]types.ProviderConfig)
	}
	p := config.Provider[provider]
	p.Model = model
	config.Provider[provider] = p
}

// DefaultProviderID returns the first configured provider in the priority
// order spec.md §6 names: anthropic, then openai, then zai, then ollama.
// Returns an empty string when none are configured.
func DefaultProviderID(config *types.Config) string {
	for _, id := range []string{"anthropic", "openai", "zai", "ollama"} {
		if p, ok := config.Provider[id]; ok && (p.APIKey != "" || p.BaseURL != "") {
			return id
		}
	}
	return ""
}

// Save writes config as indented JSON to path, creating parent directories
// as needed.
func Save(config *types.Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
