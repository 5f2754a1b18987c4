package cli

import (
	"context"
	"fmt"

	"screenmatch/internal/common"
	"screenmatch/internal/types"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [resume-file]",
	Short: "Evaluate one resume against a job description",
	Long: `Evaluate a candidate resume against a job description and print the
match scores, matched and missing skills, and a hiring recommendation.
The resume can be a PDF, DOCX, or plain text file. The job description comes
from --jd-file, a stored --jd-id, or inline --jd-text.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if evaluateConfig.OutputFormat == "" {
			evaluateConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(evaluateConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runEvaluate,
}

var (
	evaluateConfig common.CommandConfig
	evaluateJD     jdFlags
)

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	evaluateCmd.Flags().StringVar(&evaluateConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	evaluateJD.register(evaluateCmd)

	// Add completion for format flag
	_ = evaluateCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close pipeline", "error", err)
		}
	}()

	jd, err := evaluateJD.resolve(p.store, logger)
	if err != nil {
		return err
	}

	createInput := func(files []common.NamedFile) (types.BulkItem, error) {
		if len(files) != 1 {
			return types.BulkItem{}, fmt.Errorf("expected 1 resume file, got %d", len(files))
		}
		return types.BulkItem{Filename: files[0].Name, Data: files[0].Data}, nil
	}

	logDetails := func(input types.BulkItem, cfg common.CommandConfig) {
		logger.Info("Starting resume evaluation",
			"filename", input.Filename,
			"job_title", jd.Title,
			"output_format", cfg.OutputFormat)
	}

	evaluateOperation := func(ctx context.Context, input types.BulkItem) (*types.Evaluation, error) {
		return p.evaluator.EvaluateFile(ctx, input.Data, input.Filename, jd)
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		evaluateConfig,
		args,
		createInput,
		evaluateOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to evaluate resume: %w", err)
	}
	logger.Info("Resume evaluation completed successfully")
	return nil
}
