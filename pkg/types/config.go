package types

// Mode names a preset of per-request limits.
type Mode string

const (
	ModeRush  Mode = "rush"
	ModeSmart Mode = "smart"
	ModeDeep  Mode = "deep"
)

// ModeLimits bounds one request under a given Mode.
type ModeLimits struct {
	MaxInputTokens  int `json:"maxInputTokens"`
	MaxOutputTokens int `json:"maxOutputTokens"`
	TimeoutSeconds  int `json:"timeoutSeconds"`
	MaxRetries      int `json:"maxRetries"`
}

// ModeLimitsTable is the fixed Rush/Smart/Deep limits table.
var ModeLimitsTable = map[Mode]ModeLimits{
	ModeRush:  {MaxInputTokens: 6_000, MaxOutputTokens: 2_000, TimeoutSeconds: 30, MaxRetries: 1},
	ModeSmart: {MaxInputTokens: 24_000, MaxOutputTokens: 8_000, TimeoutSeconds: 120, MaxRetries: 3},
	ModeDeep:  {MaxInputTokens: 48_000, MaxOutputTokens: 16_000, TimeoutSeconds: 300, MaxRetries: 5},
}

// LimitsFor returns the limits for a mode, defaulting to Smart when the mode
// is unrecognised.
func LimitsFor(m Mode) ModeLimits {
	if l, ok := ModeLimitsTable[m]; ok {
		return l
	}
	return ModeLimitsTable[ModeSmart]
}

// ProviderConfig holds the per-provider settings resolved at startup.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
	Model   string `json:"model,omitempty"`
}

// ModelOptions captures provider-specific capability flags a model may
// advertise beyond the common fields on Model.
type ModelOptions struct {
	PromptCaching  bool `json:"promptCaching,omitempty"`
	ExtendedOutput bool `json:"extendedOutput,omitempty"`
}

// Model describes one LLM model available from a provider.
type Model struct {
	ID                string       `json:"id"`
	Name              string       `json:"name,omitempty"`
	ProviderID        string       `json:"providerID"`
	ContextLength     int          `json:"contextLength"`
	MaxOutputTokens   int          `json:"maxOutputTokens,omitempty"`
	SupportsTools     bool         `json:"supportsTools"`
	SupportsVision    bool         `json:"supportsVision,omitempty"`
	SupportsReasoning bool         `json:"supportsReasoning,omitempty"`
	InputPrice        float64      `json:"inputPrice,omitempty"`
	OutputPrice       float64      `json:"outputPrice,omitempty"`
	Options           ModelOptions `json:"options,omitempty"`
}

// Config is the resolved runtime configuration: the active model per Mode,
// and per-provider credentials. Loaded from .locus/config.json, overridden
// by environment variables.
type Config struct {
	Model      string                    `json:"model,omitempty"`
	SmallModel string                    `json:"smallModel,omitempty"`
	Provider   map[string]ProviderConfig `json:"provider,omitempty"`
}
