// Package evaluate orchestrates the screening pipeline: document text
// extraction, deterministic scoring, and optional AI refinement.
package evaluate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"screenmatch/internal/ai"
	"screenmatch/internal/errors"
	"screenmatch/internal/extract"
	"screenmatch/internal/scoring"
	"screenmatch/internal/store"
	"screenmatch/internal/types"
)

// Evaluator runs resumes through extraction, scoring, and optional AI
// refinement. The refiner may be nil, in which case results are purely
// deterministic.
type Evaluator struct {
	extractor *extract.Extractor
	store     store.Store
	engine    *scoring.Engine
	refiner   ai.Refiner
	logger    *errors.Logger

	bulkWorkers int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRefiner attaches an AI refiner. Refinement is best effort: a refiner
// failure degrades to the baseline result instead of failing the evaluation.
func WithRefiner(r ai.Refiner) Option {
	return func(e *Evaluator) {
		e.refiner = r
	}
}

// WithBulkWorkers bounds the number of resumes scored concurrently during
// bulk runs. Values below 1 are ignored.
func WithBulkWorkers(n int) Option {
	return func(e *Evaluator) {
		if n >= 1 {
			e.bulkWorkers = n
		}
	}
}

// New creates an Evaluator over the given extractor, store, and scoring
// engine.
func New(extractor *extract.Extractor, st store.Store, engine *scoring.Engine, logger *errors.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		extractor:   extractor,
		store:       st,
		engine:      engine,
		logger:      logger,
		bulkWorkers: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateFile extracts text from one resume document and scores it against
// the given job description. When a refiner is configured the baseline
// result is offered to it for adjustment.
func (e *Evaluator) EvaluateFile(ctx context.Context, data []byte, filename string, jd types.JobDescription) (*types.Evaluation, error) {
	tracer := otel.Tracer("screenmatch.evaluate")
	ctx, span := tracer.Start(ctx, "evaluate.file")
	defer span.End()

	span.SetAttributes(
		attribute.String("evaluate.filename", filename),
		attribute.String("evaluate.job_title", jd.Title),
	)

	text, err := e.extractor.Extract(data, filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}

	result, err := e.engine.Score(text, jd.Description, jd.Requirements)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return nil, err
	}

	result = e.refine(ctx, text, jd, result)

	span.SetAttributes(
		attribute.Int("evaluate.overall_score", result.OverallScore),
		attribute.String("evaluate.recommendation", string(result.Recommendation)),
		attribute.Bool("evaluate.ai_refined", result.AIRefined),
	)

	return &types.Evaluation{
		Filename:    filename,
		JobTitle:    jd.Title,
		Result:      result,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

// EvaluateSaved scores one resume against a stored job description looked up
// by id. The lookup goes through Use so the record's usage accounting
// reflects the evaluation.
func (e *Evaluator) EvaluateSaved(ctx context.Context, data []byte, filename string, jdID int) (*types.Evaluation, error) {
	jd, err := e.store.Use(jdID)
	if err != nil {
		return nil, err
	}
	return e.EvaluateFile(ctx, data, filename, jd)
}

// EvaluateBulk scores a batch of resumes against one job description with a
// bounded worker pool. One item's failure never aborts its siblings; failed
// items carry the error message in their slot. Successful items are ranked
// by overall score descending with ties broken by upload order.
func (e *Evaluator) EvaluateBulk(ctx context.Context, items []types.BulkItem, jd types.JobDescription) (*types.BulkReport, error) {
	tracer := otel.Tracer("screenmatch.evaluate")
	ctx, span := tracer.Start(ctx, "evaluate.bulk")
	defer span.End()

	span.SetAttributes(
		attribute.Int("evaluate.bulk_items", len(items)),
		attribute.String("evaluate.job_title", jd.Title),
	)

	if len(items) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "no files submitted for bulk evaluation", nil)
	}

	results := make([]types.BulkItemResult, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.bulkWorkers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = e.evaluateBulkItem(gCtx, item, jd)
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankResults(results)
	summary := summarize(results)

	span.SetAttributes(
		attribute.Int("evaluate.bulk_succeeded", summary.Succeeded),
		attribute.Int("evaluate.bulk_failed", summary.Failed),
	)

	return &types.BulkReport{
		JobTitle: jd.Title,
		Items:    results,
		Summary:  summary,
	}, nil
}

func (e *Evaluator) evaluateBulkItem(ctx context.Context, item types.BulkItem, jd types.JobDescription) types.BulkItemResult {
	res := types.BulkItemResult{Filename: item.Filename}

	eval, err := e.EvaluateFile(ctx, item.Data, item.Filename, jd)
	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "bulk item evaluation failed", "filename", item.Filename)
		}
		res.Error = err.Error()
		if appErr, ok := err.(*errors.AppError); ok {
			res.ErrorCode = appErr.Code
		}
		return res
	}
	res.Result = eval.Result
	return res
}

// refine offers the baseline result to the configured refiner. Any refiner
// failure is logged and the baseline is returned unchanged.
func (e *Evaluator) refine(ctx context.Context, resumeText string, jd types.JobDescription, baseline *types.MatchResult) *types.MatchResult {
	if e.refiner == nil {
		return baseline
	}

	refined, usage, err := e.refiner.RefineMatch(ctx, types.RefineMatchInput{
		ResumeText:     resumeText,
		JobDescription: jd,
		Baseline:       baseline,
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("AI refinement failed, keeping baseline result", "error", err.Error())
		}
		return baseline
	}
	if e.logger != nil && usage != nil {
		e.logger.Debug("AI refinement token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens)
	}
	return refined
}

// rankResults orders results by overall score descending, successes before
// failures, and assigns 1-based ranks to successful items. sort.SliceStable
// preserves upload order among equal scores.
func rankResults(results []types.BulkItemResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].Result, results[j].Result
		if ri == nil || rj == nil {
			return ri != nil && rj == nil
		}
		return ri.OverallScore > rj.OverallScore
	})
	rank := 0
	for i := range results {
		if results[i].Result != nil {
			rank++
			results[i].Rank = rank
		}
	}
}

// summarize aggregates a ranked result set into counts, the average overall
// score across successes, and a score-distribution histogram.
func summarize(results []types.BulkItemResult) types.BulkSummary {
	summary := types.BulkSummary{
		Total:        len(results),
		Distribution: map[string]int{},
	}

	scoreSum := 0
	for _, r := range results {
		if r.Result == nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		scoreSum += r.Result.OverallScore
		summary.Distribution[distributionBucket(r.Result.OverallScore)]++
	}
	if summary.Succeeded > 0 {
		summary.AverageScore = float64(scoreSum) / float64(summary.Succeeded)
	}
	return summary
}

func distributionBucket(score int) string {
	switch {
	case score >= 80:
		return "Excellent (80-100)"
	case score >= 60:
		return "Good (60-79)"
	case score >= 40:
		return "Fair (40-59)"
	case score >= 20:
		return "Poor (20-39)"
	default:
		return "Very Poor (0-19)"
	}
}

// Describe returns a short human-readable pipeline description, used by the
// version and stats surfaces.
func (e *Evaluator) Describe() string {
	mode := "deterministic"
	if e.refiner != nil {
		mode = "deterministic + AI refinement"
	}
	return fmt.Sprintf("%s, %d bulk workers", mode, e.bulkWorkers)
}
