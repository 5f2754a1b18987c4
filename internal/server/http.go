package server

import (
	"fmt"
	"time"

	"screenmatch/internal/ai"
	"screenmatch/internal/config"
	screenmatchErrors "screenmatch/internal/errors"
	"screenmatch/internal/evaluate"
	"screenmatch/internal/extract"
	"screenmatch/internal/scoring"
	"screenmatch/internal/store"
	"screenmatch/internal/types"
)

// EvaluateRequest is the JSON request body for the evaluate endpoint. The
// resume arrives as text here; binary documents go through the multipart
// form instead.
type EvaluateRequest struct {
	ResumeText string `json:"resumeText"`
	Filename   string `json:"filename,omitempty"`
	JDRef      JDRef  `json:"jd"`
}

// JDRef selects a job description: a stored id, or inline content.
type JDRef struct {
	ID           int    `json:"id,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
}

// SaveJDRequest is the request body for creating or updating a stored job
// description.
type SaveJDRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements,omitempty"`
	Category     string `json:"category,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Screening pipeline
	Store     store.Store
	Evaluator *evaluate.Evaluator
	Refiner   ai.Refiner

	// Store file watcher (optional)
	storeWatcher *store.FileWatcher

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *screenmatchErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *screenmatchErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}

// initializePipeline wires the store, scoring engine, extractor, and optional
// AI refiner from the application config.
func (s *Server) initializePipeline() error {
	st, err := store.NewFileStore(s.AppConfig.Store.Path, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to open job description store: %w", err)
	}
	s.Store = st

	if s.AppConfig.Store.Watch {
		watcher := store.NewFileWatcher(st, s.AppConfig.Store.WatchDebounce, s.Logger)
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start store watcher: %w", err)
		}
		s.storeWatcher = watcher
	}

	engine, err := scoring.New(s.AppConfig.Scoring.SkillWeight, s.AppConfig.Scoring.ExperienceWeight)
	if err != nil {
		return err
	}

	opts := []evaluate.Option{
		evaluate.WithBulkWorkers(s.AppConfig.App.BulkWorkers),
	}
	if s.AppConfig.AI.Enabled {
		aiService, err := ai.NewService(&s.AppConfig.AI, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to create AI service: %w", err)
		}
		s.Refiner = aiService.Provider
		opts = append(opts, evaluate.WithRefiner(s.Refiner))
	}

	extractor := extract.New(s.AppConfig.App.MaxFileSize)
	s.Evaluator = evaluate.New(extractor, st, engine, s.Logger, opts...)
	return nil
}

// resolveJD turns a JDRef into a concrete job description. Stored ids go
// through Use so usage accounting reflects the evaluation.
func (s *Server) resolveJD(ref JDRef) (types.JobDescription, error) {
	if ref.ID > 0 {
		return s.Store.Use(ref.ID)
	}
	if ref.Description == "" {
		return types.JobDescription{}, screenmatchErrors.NewValidationError(
			screenmatchErrors.ErrCodeInvalidRequest,
			"a job description is required: set jd.id or jd.description", nil)
	}
	title := ref.Title
	if title == "" {
		title = "Ad-hoc job description"
	}
	return types.JobDescription{
		Title:        title,
		Description:  ref.Description,
		Requirements: ref.Requirements,
		Category:     types.CategoryCustom,
	}, nil
}
