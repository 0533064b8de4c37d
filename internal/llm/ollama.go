package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/recall/pkg/types"
)

// OllamaConfig holds configuration for the Ollama extraction client.
type OllamaConfig struct {
	BaseURL string        // default: http://localhost:11434
	Model   string        // default: qwen2.5:7b
	Timeout time.Duration // default: 120s (local models can be slow)

	// RateLimitRPS caps outgoing calls per second (default: 0.5).
	RateLimitRPS float64
}

// OllamaClient implements Extractor using a local Ollama server. Image
// payloads are ignored: the models we target here are text-only, and the
// prompt already tells the model to work from the text alone.
type OllamaClient struct {
	cfg            OllamaConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
}

// NewOllamaClient creates a new Ollama client with the given configuration.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "qwen2.5:7b"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 0.5
	}
	return &OllamaClient{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreaker(),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
	}
}

// ollamaRequest is the request body for /api/generate.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

// ollamaResponse is the response body from /api/generate.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Extract sends the note content to Ollama and parses the structured result.
func (c *OllamaClient) Extract(ctx context.Context, text string, image *types.ImagePayload, cfg *types.AppConfig) (*types.AnalysisResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ollama: rate limiter: %w", err)
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.extract(ctx, text, cfg)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("ollama circuit breaker open: %w", err)
		}
		return nil, err
	}
	return result.(*types.AnalysisResult), nil
}

func (c *OllamaClient) extract(ctx context.Context, text string, cfg *types.AppConfig) (*types.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: ExtractionPrompt(text, false, cfg),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("ollama: failed to decode response: %w", err)
	}
	if parsed.Response == "" {
		return nil, errors.New("ollama: empty response")
	}

	return ParseAnalysisResult(parsed.Response)
}

// GetModel returns the configured model name.
func (c *OllamaClient) GetModel() string {
	return c.cfg.Model
}
