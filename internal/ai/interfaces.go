package ai

import (
	"context"

	"screenmatch/internal/types"
)

// Refiner reviews a baseline match result and may return an adjusted copy.
// All methods return token usage information - callers can ignore it if not
// needed.
type Refiner interface {
	RefineMatch(ctx context.Context, input types.RefineMatchInput) (*types.MatchResult, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
