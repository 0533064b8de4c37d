package llm

import "fmt"

// Config selects and configures an extraction provider.
type Config struct {
	Provider     string // "gemini" or "ollama"
	APIKey       string
	Model        string
	BaseURL      string
	RateLimitRPS float64
}

// NewExtractor creates the appropriate Extractor for the given config.
func NewExtractor(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiClient(GeminiConfig{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			BaseURL:      cfg.BaseURL,
			RateLimitRPS: cfg.RateLimitRPS,
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			RateLimitRPS: cfg.RateLimitRPS,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
