package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"screenmatch/internal/config"
	appErrors "screenmatch/internal/errors"
	"screenmatch/internal/types"
)

// GeminiProvider implements Refiner for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.AIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

// Ensure GeminiProvider implements Refiner
var _ Refiner = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.AIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker("RefineMatch", cfg, logger),
		modelBreaker:   NewModelCircuitBreaker("RefineMatch", cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}
	return modelInfo
}

// refinementOutput is the structured response requested from the model.
type refinementOutput struct {
	AdjustedScore int    `json:"adjustedScore"`
	Summary       string `json:"summary"`
}

// RefineMatch asks the model to review a baseline match result. The returned
// result is a copy of the baseline with an adjusted overall score (and the
// recommendation recomputed from it) and the model's summary.
func (g *GeminiProvider) RefineMatch(ctx context.Context, input types.RefineMatchInput) (*types.MatchResult, *TokenUsage, error) {
	tracer := otel.Tracer("screenmatch.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.refine_match")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(g.config.Temperature)),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("baseline.overall_score", input.Baseline.OverallScore),
	)

	baselineJSON, err := json.Marshal(input.Baseline)
	if err != nil {
		return nil, nil, appErrors.NewInternalError(appErrors.ErrCodeInvalidFormat,
			"Failed to encode baseline result", err)
	}

	userPrompt := fmt.Sprintf(UserPromptRefineMatch,
		input.ResumeText,
		input.JobDescription.Title,
		input.JobDescription.CombinedText(),
		string(baselineJSON))

	genaiConfig := g.buildRefineSchema()
	genaiConfig.SystemInstruction = genai.NewContentFromText(SystemPromptRefineMatch, genai.RoleUser)

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, "refine_match", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to generate match refinement", err)
	}

	var output refinementOutput
	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, nil, appErrors.NewAIError("AI_RESPONSE_PARSE_FAILED",
			"Failed to parse match refinement response", err)
	}

	refined := applyRefinement(input.Baseline, output)

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("refined.overall_score", refined.OverallScore),
	)

	return refined, tokenUsage, nil
}

// applyRefinement merges the model's output into a copy of the baseline. An
// out-of-range adjusted score is ignored so a confused model can never push a
// result outside [0,100].
func applyRefinement(baseline *types.MatchResult, output refinementOutput) *types.MatchResult {
	refined := *baseline
	refined.AIRefined = true

	if output.Summary != "" {
		refined.Summary = output.Summary
	}
	if output.AdjustedScore >= 0 && output.AdjustedScore <= 100 {
		refined.OverallScore = output.AdjustedScore
		refined.Recommendation = recommendationForScore(output.AdjustedScore)
	}
	return &refined
}

// recommendationForScore mirrors the scoring engine's thresholds so refined
// scores stay consistent with baseline ones.
func recommendationForScore(score int) types.Recommendation {
	switch {
	case score >= 80:
		return types.RecommendationStrongMatch
	case score >= 60:
		return types.RecommendationMatch
	case score >= 40:
		return types.RecommendationWeak
	default:
		return types.RecommendationNoMatch
	}
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			// Use crypto/rand for secure random jitter
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true // Retry on timeouts
		}
		// Consider other network errors retryable (e.g., connection refused)
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - both breakers must be healthy
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()

	return stats
}

// Close implements Refiner
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildRefineSchema creates the structured response schema for refinement
func (g *GeminiProvider) buildRefineSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"adjustedScore": {Type: genai.TypeInteger},
				"summary":       {Type: genai.TypeString},
			},
			Required: []string{"adjustedScore", "summary"},
		},
	}

	if g.config.Temperature > 0 {
		temp := g.config.Temperature
		config.Temperature = &temp
	}

	return config
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
