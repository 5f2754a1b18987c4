package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Category classifies how a job description entered the repository.
type Category string

const (
	CategoryTemplate     Category = "Template"
	CategoryCustom       Category = "Custom"
	CategoryBulkTemplate Category = "BulkTemplate"
)

// JobDescription is a stored job description record. Field names follow the
// on-disk collection format and must not change.
type JobDescription struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Category     Category  `json:"category"`
	CreatedDate  time.Time `json:"created_date"`
	LastUpdated  time.Time `json:"last_updated"`
	UsageCount   int       `json:"usage_count"`
}

// UnmarshalJSON accepts both shapes of the requirements field: the collection
// format stores free text, but some tooling writes an array of requirement
// lines. Arrays are joined with newlines; marshaling always emits the string
// form.
func (jd *JobDescription) UnmarshalJSON(data []byte) error {
	type alias JobDescription
	aux := struct {
		*alias
		Requirements json.RawMessage `json:"requirements"`
	}{alias: (*alias)(jd)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Requirements)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		jd.Requirements = ""
		return nil
	}
	if raw[0] == '[' {
		var lines []string
		if err := json.Unmarshal(raw, &lines); err != nil {
			return err
		}
		jd.Requirements = strings.Join(lines, "\n")
		return nil
	}
	return json.Unmarshal(raw, &jd.Requirements)
}

// CombinedText joins the free-form description with the requirements text,
// which is the text the scoring engine compares resumes against.
func (jd JobDescription) CombinedText() string {
	if strings.TrimSpace(jd.Requirements) == "" {
		return jd.Description
	}
	return jd.Description + "\n" + jd.Requirements
}

// Recommendation is the hiring recommendation derived from the overall score.
type Recommendation string

const (
	RecommendationStrongMatch Recommendation = "StrongMatch"
	RecommendationMatch       Recommendation = "Match"
	RecommendationWeak        Recommendation = "Weak"
	RecommendationNoMatch     Recommendation = "NoMatch"
)

// MatchResult is the outcome of scoring one resume against one job
// description.
type MatchResult struct {
	OverallScore    int            `json:"overallScore"`
	SkillScore      int            `json:"skillScore"`
	ExperienceScore int            `json:"experienceScore"`
	Recommendation  Recommendation `json:"recommendation"`
	MatchedSkills   []string       `json:"matchedSkills"`
	MissingSkills   []string       `json:"missingSkills"`
	Summary         string         `json:"summary,omitempty"`
	AIRefined       bool           `json:"aiRefined,omitempty"`
}

// RefineMatchInput carries everything the optional AI reviewer needs to
// second-guess a baseline match result.
type RefineMatchInput struct {
	ResumeText     string         `json:"resumeText"`
	JobDescription JobDescription `json:"jobDescription"`
	Baseline       *MatchResult   `json:"baseline"`
}

// Evaluation pairs a match result with the evaluated document.
type Evaluation struct {
	Filename    string       `json:"filename"`
	JobTitle    string       `json:"jobTitle,omitempty"`
	Result      *MatchResult `json:"result"`
	EvaluatedAt time.Time    `json:"evaluatedAt"`
}

// BulkItem is one resume submitted for bulk screening.
type BulkItem struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// BulkItemResult is the per-resume outcome of a bulk run. Exactly one of
// Result and Error is set.
type BulkItemResult struct {
	Filename  string       `json:"filename"`
	Rank      int          `json:"rank,omitempty"`
	Result    *MatchResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorCode string       `json:"errorCode,omitempty"`
}

// BulkSummary aggregates a bulk run.
type BulkSummary struct {
	Total        int            `json:"total"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	AverageScore float64        `json:"averageScore"`
	Distribution map[string]int `json:"distribution"`
}

// BulkReport is the full output of a bulk screening run, ranked best first.
type BulkReport struct {
	JobTitle string           `json:"jobTitle,omitempty"`
	Items    []BulkItemResult `json:"items"`
	Summary  BulkSummary      `json:"summary"`
}
