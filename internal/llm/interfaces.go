// Package llm provides the extraction collaborator: clients that send raw
// note text (and optionally an image) to an LLM provider and parse the
// structured AnalysisResult back. All calls are protected by a circuit
// breaker and a client-side rate limiter; failures are terminal for the
// invocation and never retried by this layer.
package llm

import (
	"context"

	"github.com/scrypster/recall/pkg/types"
)

// Extractor is the interface the ingestion surface consumes. Extract may
// fail (network or parse error) or return a degraded result; it never
// commits anything.
type Extractor interface {
	Extract(ctx context.Context, text string, image *types.ImagePayload, cfg *types.AppConfig) (*types.AnalysisResult, error)
	GetModel() string
}
