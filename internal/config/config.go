// Package config provides configuration management for Recall.
// It loads settings from environment variables with the RECALL_ prefix
// and provides sensible defaults for all configuration options.
//
// The user-editable application config (categories, note types, automation
// rules) is data the engine consumes, not code; it lives in the record store
// under its own collection key with a YAML file import/export path.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/recall/pkg/types"
)

// Config holds all process-level configuration settings for Recall.
type Config struct {
	Storage StorageConfig
	LLM     LLMConfig
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres, memory (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // PostgreSQL connection string (used when StorageEngine is postgres)
}

// LLMConfig contains extraction provider configuration.
type LLMConfig struct {
	Provider     string // Extraction provider: gemini, ollama (default: gemini)
	GeminiAPIKey string // Gemini API key
	GeminiModel  string // Gemini model name (default: gemini-3-flash-preview)
	OllamaURL    string // Ollama API URL (default: http://localhost:11434)
	OllamaModel  string // Ollama model name (default: qwen2.5:7b)
	RateLimitRPS float64 // Max extraction calls per second (default: 0.5)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RECALL_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("RECALL_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("RECALL_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("RECALL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:     getEnv("RECALL_LLM_PROVIDER", "gemini"),
			GeminiAPIKey: getEnv("RECALL_GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("RECALL_GEMINI_MODEL", "gemini-3-flash-preview"),
			OllamaURL:    getEnv("RECALL_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:  getEnv("RECALL_OLLAMA_MODEL", "qwen2.5:7b"),
			RateLimitRPS: getEnvFloat("RECALL_LLM_RATE_LIMIT_RPS", 0.5),
		},
	}, nil
}

// DefaultAppConfig returns the built-in application config used when no
// config collection has been persisted yet: a starter category set and both
// machine-checked automation rules, active.
func DefaultAppConfig() *types.AppConfig {
	return &types.AppConfig{
		Categories: []types.CategoryDefinition{
			{ID: "1", Name: "Meeting", Color: "indigo", Synonyms: []string{"Call", "Sync", "Standup"}},
			{ID: "2", Name: "Idea", Color: "amber", Synonyms: []string{"Inspiration", "Concept"}},
			{ID: "3", Name: "Project", Color: "purple", Synonyms: []string{"Plan", "Strategy"}},
			{ID: "4", Name: "CRM", Color: "orange", Synonyms: []string{"Client", "Sale", "Lead"}},
			{ID: "5", Name: "Personal", Color: "green", Synonyms: []string{"Home", "Health"}},
		},
		NoteTypes: []types.NoteTypeDefinition{
			{ID: "t1", Name: "Meeting", Fields: []types.NoteTypeField{}},
			{ID: "t2", Name: "Bug", Fields: []types.NoteTypeField{}},
			{ID: "t3", Name: "Credential", Fields: []types.NoteTypeField{}},
		},
		QuickActions: []string{},
		AutomationRules: []types.AutomationRule{
			{
				ID:        "r1",
				Trigger:   "On saving a task",
				Condition: "Has no context (Company/Project)",
				Action:    "Ask for confirmation / block",
				IsActive:  true,
				Code:      types.RuleTaskRequiresContext,
			},
			{
				ID:        "r2",
				Trigger:   "On creating an entity",
				Condition: "Name is generic or empty",
				Action:    "Mark as incomplete",
				IsActive:  true,
				Code:      types.RuleEntityVagueIncomplete,
			},
		},
	}
}

// LoadAppConfigFile reads an AppConfig from a YAML file.
func LoadAppConfigFile(path string) (*types.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg types.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveAppConfigFile writes an AppConfig to a YAML file.
func SaveAppConfigFile(path string, cfg *types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal app config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
// If the environment variable exists but cannot be parsed, it returns the
// default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
