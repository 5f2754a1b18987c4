package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"screenmatch/internal/ai"
	"screenmatch/internal/common"
	"screenmatch/internal/config"
	"screenmatch/internal/errors"
	"screenmatch/internal/evaluate"
	"screenmatch/internal/extract"
	"screenmatch/internal/scoring"
	"screenmatch/internal/store"
	"screenmatch/internal/types"

	"github.com/spf13/cobra"
)

// pipeline bundles the components a screening command needs.
type pipeline struct {
	evaluator *evaluate.Evaluator
	store     store.Store
	refiner   ai.Refiner
}

// Close releases the store and the AI provider if one was created.
func (p *pipeline) Close() error {
	var err error
	if p.refiner != nil {
		err = p.refiner.Close()
	}
	if closeErr := p.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// buildPipeline wires the extractor, store, scoring engine, and optional AI
// refiner from configuration.
func buildPipeline(cfg *config.Config, logger *errors.Logger) (*pipeline, error) {
	st, err := store.NewFileStore(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}

	engine, err := scoring.New(cfg.Scoring.SkillWeight, cfg.Scoring.ExperienceWeight)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(cfg.App.MaxFileSize)

	opts := []evaluate.Option{
		evaluate.WithBulkWorkers(cfg.App.BulkWorkers),
	}

	var refiner ai.Refiner
	if cfg.AI.Enabled {
		aiService, err := ai.NewService(&cfg.AI, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI service: %w", err)
		}
		refiner = aiService.Provider
		opts = append(opts, evaluate.WithRefiner(refiner))
	}

	return &pipeline{
		evaluator: evaluate.New(extractor, st, engine, logger, opts...),
		store:     st,
		refiner:   refiner,
	}, nil
}

// jdFlags holds the flags every screening command uses to select a job
// description.
type jdFlags struct {
	File  string
	ID    int
	Text  string
	Title string
	Save  bool
}

func (f *jdFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.File, "jd-file", "", "Path to a job description text file")
	cmd.Flags().IntVar(&f.ID, "jd-id", 0, "ID of a stored job description")
	cmd.Flags().StringVar(&f.Text, "jd-text", "", "Inline job description text")
	cmd.Flags().StringVar(&f.Title, "jd-title", "", "Title for the job description")
	cmd.Flags().BoolVar(&f.Save, "save-jd", false, "Persist the job description for reuse")
	cmd.MarkFlagsMutuallyExclusive("jd-file", "jd-id", "jd-text")
}

// resolve turns the flag set into a concrete job description. Stored ids go
// through Use so usage accounting reflects the run; ad-hoc descriptions are
// optionally persisted with --save-jd.
func (f *jdFlags) resolve(st store.Store, logger *errors.Logger) (types.JobDescription, error) {
	if f.ID > 0 {
		return st.Use(f.ID)
	}

	var text string
	switch {
	case f.File != "":
		content, err := common.NewFileProcessor(logger).ReadFile(f.File)
		if err != nil {
			return types.JobDescription{}, err
		}
		text = content
	case f.Text != "":
		text = f.Text
	default:
		return types.JobDescription{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"a job description is required: use --jd-file, --jd-id, or --jd-text", nil)
	}

	jd := types.JobDescription{
		Title:       f.Title,
		Description: strings.TrimSpace(text),
		Category:    types.CategoryCustom,
	}
	if jd.Title == "" {
		if f.File != "" {
			jd.Title = strings.TrimSuffix(filepath.Base(f.File), filepath.Ext(f.File))
		} else {
			jd.Title = "Ad-hoc job description"
		}
	}

	if f.Save {
		saved, err := st.Save(jd)
		if err != nil {
			return types.JobDescription{}, err
		}
		return saved, nil
	}
	return jd, nil
}
