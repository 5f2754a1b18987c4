package ai

import (
	"testing"
	"time"

	"screenmatch/internal/config"
	"screenmatch/internal/types"
)

func breakerConfig(enabled bool) *config.AIConfig {
	return &config.AIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func TestCircuitBreakerCreation(t *testing.T) {
	cb := NewAICircuitBreaker("RefineMatch", breakerConfig(true), nil)
	if cb == nil {
		t.Fatal("circuit breaker should not be nil when enabled")
	}

	stats := cb.GetStats()

	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("circuit breaker name not found")
	}
	if name != "AI-RefineMatch" {
		t.Errorf("expected name 'AI-RefineMatch', got %q", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("circuit breaker state not found")
	}
	if state != "closed" {
		t.Errorf("expected initial state 'closed', got %q", state)
	}

	if !cb.IsHealthy() {
		t.Error("new circuit breaker should be healthy")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewAICircuitBreaker("Disabled", breakerConfig(false), nil)
	if cb != nil {
		t.Fatal("circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes and reports healthy.
	if !cb.IsHealthy() {
		t.Error("nil circuit breaker should report healthy")
	}
	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("nil circuit breaker stats should report enabled=false")
	}
}

func TestApplyRefinement(t *testing.T) {
	baseline := &types.MatchResult{
		OverallScore:   55,
		SkillScore:     50,
		Recommendation: types.RecommendationWeak,
		Summary:        "baseline summary",
	}

	t.Run("applies summary and score", func(t *testing.T) {
		refined := applyRefinement(baseline, refinementOutput{AdjustedScore: 65, Summary: "stronger than the keywords suggest"})
		if !refined.AIRefined {
			t.Error("refined result should be flagged")
		}
		if refined.OverallScore != 65 {
			t.Errorf("overall = %d, want 65", refined.OverallScore)
		}
		if refined.Recommendation != types.RecommendationMatch {
			t.Errorf("recommendation = %v, want Match", refined.Recommendation)
		}
		if refined.Summary != "stronger than the keywords suggest" {
			t.Errorf("summary not applied: %q", refined.Summary)
		}
		// Baseline must not be mutated.
		if baseline.OverallScore != 55 || baseline.AIRefined {
			t.Error("baseline was mutated by refinement")
		}
	})

	t.Run("ignores out-of-range score", func(t *testing.T) {
		refined := applyRefinement(baseline, refinementOutput{AdjustedScore: 150, Summary: "x"})
		if refined.OverallScore != 55 {
			t.Errorf("out-of-range score applied: %d", refined.OverallScore)
		}
	})

	t.Run("keeps baseline summary when empty", func(t *testing.T) {
		refined := applyRefinement(baseline, refinementOutput{AdjustedScore: 55})
		if refined.Summary != "baseline summary" {
			t.Errorf("summary = %q, want baseline summary", refined.Summary)
		}
	})
}
