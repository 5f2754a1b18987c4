package formatters

import (
	"strings"
	"testing"
	"time"

	"screenmatch/internal/types"
)

func sampleEvaluation() types.Evaluation {
	return types.Evaluation{
		Filename: "candidate.pdf",
		JobTitle: "Backend Engineer",
		Result: &types.MatchResult{
			OverallScore:    73,
			SkillScore:      67,
			ExperienceScore: 82,
			Recommendation:  types.RecommendationMatch,
			MatchedSkills:   []string{"Go", "PostgreSQL"},
			MissingSkills:   []string{"Docker"},
			Summary:         "Solid backend background.",
		},
		EvaluatedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatEvaluation(t *testing.T) {
	registry := NewFormatterRegistry()
	eval := sampleEvaluation()

	tests := []struct {
		format   string
		contains []string
	}{
		{
			format:   "json",
			contains: []string{`"overallScore": 73`, `"recommendation": "Match"`},
		},
		{
			format:   "text",
			contains: []string{"CANDIDATE EVALUATION", "Overall Score: 73/100", "Missing Skills: Docker"},
		},
		{
			format:   "markdown",
			contains: []string{"# Candidate Evaluation", "| Overall | 73/100 |", "## Missing Skills"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := registry.Format(eval, tt.format)
			if err != nil {
				t.Fatalf("Format failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("%s output missing %q:\n%s", tt.format, want, out)
				}
			}
		})
	}
}

func TestFormatBulkReport(t *testing.T) {
	registry := NewFormatterRegistry()
	report := types.BulkReport{
		JobTitle: "Backend Engineer",
		Items: []types.BulkItemResult{
			{Filename: "a.pdf", Rank: 1, Result: &types.MatchResult{OverallScore: 85, Recommendation: types.RecommendationStrongMatch}},
			{Filename: "b.docx", Error: "document contains no extractable text"},
		},
		Summary: types.BulkSummary{
			Total:        2,
			Succeeded:    1,
			Failed:       1,
			AverageScore: 85,
			Distribution: map[string]int{"Excellent (80-100)": 1},
		},
	}

	out, err := registry.Format(report, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	for _, want := range []string{"BULK SCREENING REPORT", "1. a.pdf - 85/100", "FAILED: document contains no extractable text", "Excellent (80-100): 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	md, err := registry.Format(&report, "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(md, "| 1 | a.pdf | 85/100 | StrongMatch |") {
		t.Errorf("markdown output missing ranked row:\n%s", md)
	}
}

func TestFormatJobDescriptions(t *testing.T) {
	registry := NewFormatterRegistry()
	jds := []types.JobDescription{
		{ID: 1, Title: "Backend Engineer", Category: types.CategoryCustom, UsageCount: 3, LastUpdated: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "Data Analyst", Category: types.CategoryTemplate, UsageCount: 1, LastUpdated: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)},
	}

	out, err := registry.Format(jds, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	for _, want := range []string{"[1] Backend Engineer", "[2] Data Analyst", "used 3 times"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing output missing %q:\n%s", want, out)
		}
	}

	single, err := registry.Format(jds[0], "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(single, "# Backend Engineer") {
		t.Errorf("single JD output missing title:\n%s", single)
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(sampleEvaluation(), "yaml"); err == nil {
		t.Fatal("expected an error for an unregistered format")
	}
}

func TestEmptyJobListing(t *testing.T) {
	registry := NewFormatterRegistry()
	out, err := registry.Format([]types.JobDescription{}, "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(out, "No job descriptions stored") {
		t.Errorf("expected empty-store message, got:\n%s", out)
	}
}
