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

// GeminiConfig holds configuration for the Gemini extraction client.
type GeminiConfig struct {
	APIKey  string
	Model   string        // default: gemini-3-flash-preview
	BaseURL string        // default: https://generativelanguage.googleapis.com
	Timeout time.Duration // default: 60s

	// RateLimitRPS caps outgoing calls per second (default: 0.5).
	RateLimitRPS float64
}

// GeminiClient implements Extractor using the Gemini generateContent API.
// It supports multimodal requests: an optional inline image part is sent
// ahead of the prompt text.
type GeminiClient struct {
	cfg            GeminiConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
}

// NewGeminiClient creates a new Gemini client with the given configuration.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = "gemini-3-flash-preview"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 0.5
	}
	return &GeminiClient{
		cfg:            cfg,
		client:         &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreaker(),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
	}
}

// geminiPart is one content part: either text or inline data, never both.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// geminiRequest is the request body for models/{model}:generateContent.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

// geminiResponse is the response body from generateContent.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends the note content to Gemini and parses the structured result.
func (c *GeminiClient) Extract(ctx context.Context, text string, image *types.ImagePayload, cfg *types.AppConfig) (*types.AnalysisResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gemini: rate limiter: %w", err)
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.extract(ctx, text, image, cfg)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("gemini circuit breaker open: %w", err)
		}
		return nil, err
	}
	return result.(*types.AnalysisResult), nil
}

func (c *GeminiClient) extract(ctx context.Context, text string, image *types.ImagePayload, cfg *types.AppConfig) (*types.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var parts []geminiPart
	if image != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: image.MimeType,
			Data:     image.Data,
		}})
	}
	parts = append(parts, geminiPart{Text: ExtractionPrompt(text, image != nil, cfg)})

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("gemini: failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini: empty response")
	}

	return ParseAnalysisResult(parsed.Candidates[0].Content.Parts[0].Text)
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.cfg.Model
}
