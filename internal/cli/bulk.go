package cli

import (
	"context"
	"fmt"

	"screenmatch/internal/common"
	"screenmatch/internal/types"

	"github.com/spf13/cobra"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [resume-file]...",
	Short: "Screen many resumes against one job description",
	Long: `Screen a batch of candidate resumes against a single job description.
Resumes are scored concurrently and the output ranks candidates best first.
A resume that fails to process is reported in its slot without aborting the
rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if bulkConfig.OutputFormat == "" {
			bulkConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(bulkConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runBulk,
}

var (
	bulkConfig common.CommandConfig
	bulkJD     jdFlags
)

func init() {
	bulkCmd.Flags().StringVarP(&bulkConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	bulkCmd.Flags().StringVar(&bulkConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	bulkJD.register(bulkCmd)

	_ = bulkCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runBulk(cmd *cobra.Command, args []string) error {
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

	jd, err := bulkJD.resolve(p.store, logger)
	if err != nil {
		return err
	}

	createInput := func(files []common.NamedFile) ([]types.BulkItem, error) {
		items := make([]types.BulkItem, len(files))
		for i, f := range files {
			items[i] = types.BulkItem{Filename: f.Name, Data: f.Data}
		}
		return items, nil
	}

	logDetails := func(items []types.BulkItem, cfg common.CommandConfig) {
		logger.Info("Starting bulk screening",
			"resume_count", len(items),
			"job_title", jd.Title,
			"output_format", cfg.OutputFormat)
	}

	bulkOperation := func(ctx context.Context, items []types.BulkItem) (*types.BulkReport, error) {
		return p.evaluator.EvaluateBulk(ctx, items, jd)
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		bulkConfig,
		args,
		createInput,
		bulkOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to run bulk screening: %w", err)
	}
	logger.Info("Bulk screening completed successfully")
	return nil
}
