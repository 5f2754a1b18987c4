package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"screenmatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Evaluation", &EvaluationTextFormatter{})
	registry.RegisterFormatter("markdown", "Evaluation", &EvaluationMarkdownFormatter{})
	registry.RegisterFormatter("text", "BulkReport", &BulkReportTextFormatter{})
	registry.RegisterFormatter("markdown", "BulkReport", &BulkReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobDescriptionList", &JobListTextFormatter{})
	registry.RegisterFormatter("markdown", "JobDescriptionList", &JobListMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobDescription", &JobDescriptionTextFormatter{})
	registry.RegisterFormatter("markdown", "JobDescription", &JobDescriptionMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.Evaluation, *types.Evaluation:
		return "Evaluation"
	case types.BulkReport, *types.BulkReport:
		return "BulkReport"
	case []types.JobDescription:
		return "JobDescriptionList"
	case types.JobDescription:
		return "JobDescription"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writeResultText(output *strings.Builder, result *types.MatchResult) {
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("Skill Score: %d/100\n", result.SkillScore))
	output.WriteString(fmt.Sprintf("Experience Score: %d/100\n", result.ExperienceScore))
	output.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	if len(result.MatchedSkills) > 0 {
		output.WriteString(fmt.Sprintf("Matched Skills: %s\n", strings.Join(result.MatchedSkills, ", ")))
	}
	if len(result.MissingSkills) > 0 {
		output.WriteString(fmt.Sprintf("Missing Skills: %s\n", strings.Join(result.MissingSkills, ", ")))
	}
	if result.Summary != "" {
		output.WriteString("\nSummary:\n")
		output.WriteString(result.Summary)
		output.WriteString("\n")
	}
	if result.AIRefined {
		output.WriteString("\n(Scores reviewed by AI)\n")
	}
}

// EvaluationTextFormatter handles text formatting for single-resume evaluations
type EvaluationTextFormatter struct{}

func (etf *EvaluationTextFormatter) Format(data any) (string, error) {
	eval, ok := asEvaluation(data)
	if !ok {
		return "", fmt.Errorf("expected Evaluation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE EVALUATION ===\n\n")
	output.WriteString(fmt.Sprintf("File: %s\n", eval.Filename))
	if eval.JobTitle != "" {
		output.WriteString(fmt.Sprintf("Position: %s\n", eval.JobTitle))
	}
	output.WriteString("\n")
	writeResultText(&output, eval.Result)

	return output.String(), nil
}

func (etf *EvaluationTextFormatter) SupportedType() string {
	return "Evaluation"
}

// EvaluationMarkdownFormatter handles markdown formatting for single-resume evaluations
type EvaluationMarkdownFormatter struct{}

func (emf *EvaluationMarkdownFormatter) Format(data any) (string, error) {
	eval, ok := asEvaluation(data)
	if !ok {
		return "", fmt.Errorf("expected Evaluation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Evaluation\n\n")
	output.WriteString(fmt.Sprintf("**File:** %s\n\n", eval.Filename))
	if eval.JobTitle != "" {
		output.WriteString(fmt.Sprintf("**Position:** %s\n\n", eval.JobTitle))
	}

	result := eval.Result
	output.WriteString("## Scores\n\n")
	output.WriteString("| Metric | Score |\n|--------|-------|\n")
	output.WriteString(fmt.Sprintf("| Overall | %d/100 |\n", result.OverallScore))
	output.WriteString(fmt.Sprintf("| Skills | %d/100 |\n", result.SkillScore))
	output.WriteString(fmt.Sprintf("| Experience | %d/100 |\n\n", result.ExperienceScore))
	output.WriteString(fmt.Sprintf("**Recommendation:** %s\n\n", result.Recommendation))

	if len(result.MatchedSkills) > 0 {
		output.WriteString("## Matched Skills\n")
		for _, skill := range result.MatchedSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}
	if len(result.MissingSkills) > 0 {
		output.WriteString("## Missing Skills\n")
		for _, skill := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}
	if result.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(result.Summary)
		output.WriteString("\n")
	}
	if result.AIRefined {
		output.WriteString("\n*Scores reviewed by AI.*\n")
	}

	return output.String(), nil
}

func (emf *EvaluationMarkdownFormatter) SupportedType() string {
	return "Evaluation"
}

// BulkReportTextFormatter handles text formatting for bulk screening reports
type BulkReportTextFormatter struct{}

func (btf *BulkReportTextFormatter) Format(data any) (string, error) {
	report, ok := asBulkReport(data)
	if !ok {
		return "", fmt.Errorf("expected BulkReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== BULK SCREENING REPORT ===\n\n")
	if report.JobTitle != "" {
		output.WriteString(fmt.Sprintf("Position: %s\n\n", report.JobTitle))
	}

	output.WriteString("=== RANKING ===\n")
	for _, item := range report.Items {
		if item.Result != nil {
			output.WriteString(fmt.Sprintf("%d. %s - %d/100 (%s)\n",
				item.Rank, item.Filename, item.Result.OverallScore, item.Result.Recommendation))
		} else {
			output.WriteString(fmt.Sprintf("-. %s - FAILED: %s\n", item.Filename, item.Error))
		}
	}
	output.WriteString("\n")

	s := report.Summary
	output.WriteString("=== SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Total: %d, Succeeded: %d, Failed: %d\n", s.Total, s.Succeeded, s.Failed))
	output.WriteString(fmt.Sprintf("Average Score: %.1f\n", s.AverageScore))
	if len(s.Distribution) > 0 {
		output.WriteString("Distribution:\n")
		for _, bucket := range distributionOrder {
			if count, ok := s.Distribution[bucket]; ok {
				output.WriteString(fmt.Sprintf("  %s: %d\n", bucket, count))
			}
		}
	}

	return output.String(), nil
}

func (btf *BulkReportTextFormatter) SupportedType() string {
	return "BulkReport"
}

// BulkReportMarkdownFormatter handles markdown formatting for bulk screening reports
type BulkReportMarkdownFormatter struct{}

func (bmf *BulkReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := asBulkReport(data)
	if !ok {
		return "", fmt.Errorf("expected BulkReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Bulk Screening Report\n\n")
	if report.JobTitle != "" {
		output.WriteString(fmt.Sprintf("**Position:** %s\n\n", report.JobTitle))
	}

	output.WriteString("## Ranking\n\n")
	output.WriteString("| Rank | File | Score | Recommendation |\n")
	output.WriteString("|------|------|-------|----------------|\n")
	for _, item := range report.Items {
		if item.Result != nil {
			output.WriteString(fmt.Sprintf("| %d | %s | %d/100 | %s |\n",
				item.Rank, item.Filename, item.Result.OverallScore, item.Result.Recommendation))
		} else {
			output.WriteString(fmt.Sprintf("| - | %s | - | failed: %s |\n", item.Filename, item.Error))
		}
	}
	output.WriteString("\n")

	s := report.Summary
	output.WriteString("## Summary\n\n")
	output.WriteString(fmt.Sprintf("- **Total:** %d\n", s.Total))
	output.WriteString(fmt.Sprintf("- **Succeeded:** %d\n", s.Succeeded))
	output.WriteString(fmt.Sprintf("- **Failed:** %d\n", s.Failed))
	output.WriteString(fmt.Sprintf("- **Average Score:** %.1f\n", s.AverageScore))
	if len(s.Distribution) > 0 {
		output.WriteString("\n### Score Distribution\n\n")
		for _, bucket := range distributionOrder {
			if count, ok := s.Distribution[bucket]; ok {
				output.WriteString(fmt.Sprintf("- %s: %d\n", bucket, count))
			}
		}
	}

	return output.String(), nil
}

func (bmf *BulkReportMarkdownFormatter) SupportedType() string {
	return "BulkReport"
}

// distributionOrder keeps summary buckets in score order instead of map order.
var distributionOrder = []string{
	"Excellent (80-100)",
	"Good (60-79)",
	"Fair (40-59)",
	"Poor (20-39)",
	"Very Poor (0-19)",
}

// JobListTextFormatter handles text formatting for job description listings
type JobListTextFormatter struct{}

func (jlf *JobListTextFormatter) Format(data any) (string, error) {
	jds, ok := data.([]types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected []JobDescription, got %T", data)
	}

	if len(jds) == 0 {
		return "No job descriptions stored.\n", nil
	}

	var output strings.Builder
	output.WriteString("=== JOB DESCRIPTIONS ===\n\n")
	for _, jd := range jds {
		output.WriteString(fmt.Sprintf("[%d] %s (%s, used %d times, updated %s)\n",
			jd.ID, jd.Title, jd.Category, jd.UsageCount, jd.LastUpdated.Format("2006-01-02")))
	}
	return output.String(), nil
}

func (jlf *JobListTextFormatter) SupportedType() string {
	return "JobDescriptionList"
}

// JobListMarkdownFormatter handles markdown formatting for job description listings
type JobListMarkdownFormatter struct{}

func (jlm *JobListMarkdownFormatter) Format(data any) (string, error) {
	jds, ok := data.([]types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected []JobDescription, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Job Descriptions\n\n")
	if len(jds) == 0 {
		output.WriteString("No job descriptions stored.\n")
		return output.String(), nil
	}

	output.WriteString("| ID | Title | Category | Used | Last Updated |\n")
	output.WriteString("|----|-------|----------|------|--------------|\n")
	for _, jd := range jds {
		output.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s |\n",
			jd.ID, jd.Title, jd.Category, jd.UsageCount, jd.LastUpdated.Format("2006-01-02")))
	}
	return output.String(), nil
}

func (jlm *JobListMarkdownFormatter) SupportedType() string {
	return "JobDescriptionList"
}

// JobDescriptionTextFormatter handles text formatting for a single job description
type JobDescriptionTextFormatter struct{}

func (jdf *JobDescriptionTextFormatter) Format(data any) (string, error) {
	jd, ok := data.(types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected JobDescription, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("=== %s ===\n\n", jd.Title))
	output.WriteString(fmt.Sprintf("ID: %d\n", jd.ID))
	output.WriteString(fmt.Sprintf("Category: %s\n", jd.Category))
	output.WriteString(fmt.Sprintf("Usage Count: %d\n", jd.UsageCount))
	output.WriteString(fmt.Sprintf("Created: %s\n", jd.CreatedDate.Format("2006-01-02")))
	output.WriteString(fmt.Sprintf("Updated: %s\n\n", jd.LastUpdated.Format("2006-01-02")))
	output.WriteString("Description:\n")
	output.WriteString(jd.Description)
	output.WriteString("\n")
	if jd.Requirements != "" {
		output.WriteString("\nRequirements:\n")
		output.WriteString(jd.Requirements)
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (jdf *JobDescriptionTextFormatter) SupportedType() string {
	return "JobDescription"
}

// JobDescriptionMarkdownFormatter handles markdown formatting for a single job description
type JobDescriptionMarkdownFormatter struct{}

func (jdm *JobDescriptionMarkdownFormatter) Format(data any) (string, error) {
	jd, ok := data.(types.JobDescription)
	if !ok {
		return "", fmt.Errorf("expected JobDescription, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# %s\n\n", jd.Title))
	output.WriteString(fmt.Sprintf("**ID:** %d | **Category:** %s | **Used:** %d times\n\n",
		jd.ID, jd.Category, jd.UsageCount))
	output.WriteString("## Description\n\n")
	output.WriteString(jd.Description)
	output.WriteString("\n")
	if jd.Requirements != "" {
		output.WriteString("\n## Requirements\n\n")
		output.WriteString(jd.Requirements)
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (jdm *JobDescriptionMarkdownFormatter) SupportedType() string {
	return "JobDescription"
}

func asEvaluation(data any) (*types.Evaluation, bool) {
	switch v := data.(type) {
	case types.Evaluation:
		return &v, true
	case *types.Evaluation:
		return v, true
	default:
		return nil, false
	}
}

func asBulkReport(data any) (*types.BulkReport, bool) {
	switch v := data.(type) {
	case types.BulkReport:
		return &v, true
	case *types.BulkReport:
		return v, true
	default:
		return nil, false
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
