package ai

import (
	"context"
	"fmt"

	"screenmatch/internal/config"
	"screenmatch/internal/errors"
)

// Service handles optional AI review of match results
type Service struct {
	Provider Refiner // Exported for access from server package
	config   *config.AIConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance
func NewService(cfg *config.AIConfig, logger *errors.Logger) (*Service, error) {
	var provider Refiner
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}
