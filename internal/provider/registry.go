package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/locuscode/locus/pkg/types"
)

// Registry manages all available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	config    *types.Config
}

// NewRegistry creates a new provider registry.
func NewRegistry(config *types.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		config:    config,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return provider, nil
}

// List returns all available providers.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return providers
}

// GetModel retrieves a specific model from a provider.
func (r *Registry) GetModel(providerID, modelID string) (*types.Model, error) {
	provider, err := r.Get(providerID)
	if err != nil {
		return nil, err
	}

	for _, model := range provider.Models() {
		if model.ID == modelID {
			return &model, nil
		}
	}

	return nil, fmt.Errorf("model not found: %s/%s", providerID, modelID)
}

// AllModels returns all models from all providers, ordered by descending
// quality/priority.
func (r *Registry) AllModels() []types.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var models []types.Model
	for _, p := range r.providers {
		models = append(models, p.Models()...)
	}

	sort.Slice(models, func(i, j int) bool {
		return modelPriority(models[i].ID) > modelPriority(models[j].ID)
	})

	return models
}

// DefaultModel returns the configured default model, falling back to
// Claude Sonnet, then to the first available model.
func (r *Registry) DefaultModel() (*types.Model, error) {
	if r.config != nil && r.config.Model != "" {
		providerID, modelID := ParseModelString(r.config.Model)
		return r.GetModel(providerID, modelID)
	}

	if model, err := r.GetModel("anthropic", "claude-sonnet-4-20250514"); err == nil {
		return model, nil
	}

	models := r.AllModels()
	if len(models) == 0 {
		return nil, fmt.Errorf("no models available")
	}
	return &models[0], nil
}

// ParseModelString parses "provider/model" format.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

// modelPriority returns sorting priority for models.
func modelPriority(modelID string) int {
	switch {
	case strings.Contains(modelID, "gpt-5"):
		return 100
	case strings.Contains(modelID, "claude-sonnet-4"):
		return 90
	case strings.Contains(modelID, "claude-opus"):
		return 85
	case strings.Contains(modelID, "gpt-4o"):
		return 80
	case strings.Contains(modelID, "claude-3-5"):
		return 75
	default:
		return 50
	}
}

// InitializeProviders creates and registers a provider for every entry in
// config.Provider, then auto-registers anthropic/openai from their native
// API key environment variables if config didn't already configure them.
func InitializeProviders(ctx context.Context, config *types.Config) (*Registry, error) {
	registry := NewRegistry(config)

	configured := make(map[string]bool)
	for name, cfg := range config.Provider {
		apiKey, baseURL := getProviderCredentials(cfg)

		var provider Provider
		var err error

		switch name {
		case "anthropic", "claude":
			if apiKey != "" {
				provider, err = NewAnthropicProvider(ctx, &AnthropicConfig{
					ID: name, APIKey: apiKey, BaseURL: baseURL, Model: cfg.Model, MaxTokens: 8192,
				})
			}
		case "openai", "zai", "ollama":
			if apiKey != "" || baseURL != "" {
				provider, err = NewOpenAIProvider(ctx, &OpenAIConfig{
					ID: name, APIKey: apiKey, BaseURL: baseURL, Model: cfg.Model, MaxTokens: 4096,
				})
			}
		}

		if err != nil {
			log.Warn().Err(err).Str("provider", name).Msg("failed to initialize configured provider")
			continue
		}
		if provider != nil {
			registry.Register(provider)
			configured[name] = true
		}
	}

	if !configured["anthropic"] {
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			provider, err := NewAnthropicProvider(ctx, &AnthropicConfig{ID: "anthropic", APIKey: apiKey, MaxTokens: 8192})
			if err != nil {
				log.Warn().Err(err).Msg("failed to auto-register anthropic provider")
			} else {
				registry.Register(provider)
			}
		}
	}

	if !configured["openai"] {
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			provider, err := NewOpenAIProvider(ctx, &OpenAIConfig{ID: "openai", APIKey: apiKey, MaxTokens: 4096})
			if err != nil {
				log.Warn().Err(err).Msg("failed to auto-register openai provider")
			} else {
				registry.Register(provider)
			}
		}
	}

	return registry, nil
}

func getProviderCredentials(cfg types.ProviderConfig) (apiKey, baseURL string) {
	return cfg.APIKey, cfg.BaseURL
}
