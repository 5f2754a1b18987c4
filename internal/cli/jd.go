package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"screenmatch/internal/common"
	"screenmatch/internal/errors"
	"screenmatch/internal/store"
	"screenmatch/internal/types"

	"github.com/spf13/cobra"
)

var jdCmd = &cobra.Command{
	Use:   "jd",
	Short: "Manage the job description collection",
	Long: `Manage the stored job description collection. Job descriptions are kept
in a JSON file and deduplicated by exact title: saving a title that already
exists updates the record and increments its usage count instead of creating
a duplicate.`,
}

var jdConfig common.CommandConfig

func init() {
	jdCmd.PersistentFlags().StringVarP(&jdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	jdCmd.PersistentFlags().StringVar(&jdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	jdCmd.AddCommand(jdListCmd)
	jdCmd.AddCommand(jdGetCmd)
	jdCmd.AddCommand(jdSaveCmd)
	jdCmd.AddCommand(jdUseCmd)
	jdCmd.AddCommand(jdDeleteCmd)
	jdCmd.AddCommand(jdExportCmd)
	jdCmd.AddCommand(jdImportCmd)

	jdSaveCmd.Flags().StringVar(&jdSaveTitle, "title", "", "Job description title (required)")
	jdSaveCmd.Flags().StringVar(&jdSaveDescription, "description", "", "Job description text")
	jdSaveCmd.Flags().StringVar(&jdSaveFile, "file", "", "Read the description from a text file")
	jdSaveCmd.Flags().StringSliceVar(&jdSaveRequirements, "requirements", nil, "Requirement lines (repeatable or comma separated, stored as free text)")
	jdSaveCmd.Flags().StringVar(&jdSaveCategory, "category", "", "Category: Template, Custom, or BulkTemplate")
	_ = jdSaveCmd.MarkFlagRequired("title")
	jdSaveCmd.MarkFlagsMutuallyExclusive("description", "file")
}

// jdRun wraps a subcommand body with store setup, output format defaulting,
// and store teardown.
func jdRun(body func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())

		if jdConfig.OutputFormat == "" {
			jdConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(jdConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}

		st, err := store.NewFileStore(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn("Failed to close store", "error", err)
			}
		}()

		return body(cmd, args, st, common.NewOutputHandler(logger))
	}
}

func parseJDID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid job description id %q", arg), err)
	}
	return id, nil
}

var jdListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored job descriptions",
	Args:  cobra.NoArgs,
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		jds, err := st.List()
		if err != nil {
			return err
		}
		return out.HandleOutput(jds, jdConfig)
	}),
}

var jdGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one stored job description",
	Args:  cobra.ExactArgs(1),
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		id, err := parseJDID(args[0])
		if err != nil {
			return err
		}
		jd, err := st.Get(id)
		if err != nil {
			return err
		}
		return out.HandleOutput(jd, jdConfig)
	}),
}

var (
	jdSaveTitle        string
	jdSaveDescription  string
	jdSaveFile         string
	jdSaveRequirements []string
	jdSaveCategory     string
)

var jdSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a job description",
	Long: `Save a job description to the collection. If a record with the same
title already exists it is updated in place and its usage count incremented.`,
	Args: cobra.NoArgs,
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		logger := getLoggerFromContext(cmd.Context())

		description := jdSaveDescription
		if jdSaveFile != "" {
			content, err := common.NewFileProcessor(logger).ReadFile(jdSaveFile)
			if err != nil {
				return err
			}
			description = content
		}
		if strings.TrimSpace(description) == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"a description is required: use --description or --file", nil)
		}

		jd := types.JobDescription{
			Title:        jdSaveTitle,
			Description:  strings.TrimSpace(description),
			Requirements: strings.Join(jdSaveRequirements, "\n"),
			Category:     types.Category(jdSaveCategory),
		}

		saved, err := st.Save(jd)
		if err != nil {
			return err
		}
		logger.Info("Job description saved", "id", saved.ID, "title", saved.Title, "usage_count", saved.UsageCount)
		return out.HandleOutput(saved, jdConfig)
	}),
}

var jdUseCmd = &cobra.Command{
	Use:   "use [id]",
	Short: "Record a usage of a stored job description",
	Args:  cobra.ExactArgs(1),
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		id, err := parseJDID(args[0])
		if err != nil {
			return err
		}
		jd, err := st.Use(id)
		if err != nil {
			return err
		}
		return out.HandleOutput(jd, jdConfig)
	}),
}

var jdDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored job description",
	Args:  cobra.ExactArgs(1),
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		id, err := parseJDID(args[0])
		if err != nil {
			return err
		}
		if err := st.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Deleted job description %d\n", id)
		return nil
	}),
}

var jdExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the collection as JSON",
	Args:  cobra.NoArgs,
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		jds, err := st.Export()
		if err != nil {
			return err
		}
		// Export is always JSON so the output can be re-imported.
		exportConfig := jdConfig
		exportConfig.OutputFormat = "json"
		return out.HandleOutput(jds, exportConfig)
	}),
}

var jdImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import job descriptions from a JSON export",
	Long: `Import job descriptions from a JSON export file. Records are merged by
exact title: new titles are added with fresh ids, existing titles are updated
and their usage counts incremented.`,
	Args: cobra.ExactArgs(1),
	RunE: jdRun(func(cmd *cobra.Command, args []string, st store.Store, out *common.OutputHandler) error {
		logger := getLoggerFromContext(cmd.Context())

		data, err := common.NewFileProcessor(logger).ReadFileBytes(args[0])
		if err != nil {
			return err
		}

		var jds []types.JobDescription
		if err := json.Unmarshal(data, &jds); err != nil {
			return errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("invalid import file %s", args[0]), err)
		}

		added, merged, err := st.Import(jds)
		if err != nil {
			return err
		}
		logger.Info("Import completed", "added", added, "merged", merged)
		fmt.Printf("Imported %d job descriptions (%d added, %d merged)\n", added+merged, added, merged)
		return nil
	}),
}
