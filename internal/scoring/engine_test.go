package scoring

import (
	"reflect"
	"testing"

	"screenmatch/internal/errors"
	"screenmatch/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(0.6, 0.4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewValidatesWeights(t *testing.T) {
	tests := []struct {
		name       string
		skill, exp float64
		wantErr    bool
	}{
		{"defaults", 0.6, 0.4, false},
		{"even split", 0.5, 0.5, false},
		{"skill only", 1, 0, false},
		{"sum below one", 0.5, 0.4, true},
		{"sum above one", 0.7, 0.4, true},
		{"negative", -0.2, 1.2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.skill, tt.exp)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%v, %v) error = %v, wantErr %v", tt.skill, tt.exp, err, tt.wantErr)
			}
		})
	}
}

func TestScoreSkillOverlap(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Score(
		"Experienced developer with Python and AWS.",
		"Backend role.",
		"Python, AWS, Docker",
	)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if result.SkillScore != 67 {
		t.Errorf("skill score = %d, want 67", result.SkillScore)
	}
	if !reflect.DeepEqual(result.MatchedSkills, []string{"Python", "AWS"}) {
		t.Errorf("matched = %v, want [Python AWS]", result.MatchedSkills)
	}
	if !reflect.DeepEqual(result.MissingSkills, []string{"Docker"}) {
		t.Errorf("missing = %v, want [Docker]", result.MissingSkills)
	}
}

func TestScoreInsufficientText(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name         string
		resume       string
		description  string
		requirements string
	}{
		{"empty resume", "", "Backend role", "Go"},
		{"whitespace resume", "  \n\t ", "Backend role", "Go"},
		{"empty job description", "Go developer", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Score(tt.resume, tt.description, tt.requirements)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Code != errors.ErrCodeInsufficientText {
				t.Errorf("expected %s, got %v", errors.ErrCodeInsufficientText, err)
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	e := newTestEngine(t)

	resume := "Python developer, 5 years experience with Django, PostgreSQL and Docker."
	description := "We need a backend engineer with 3+ years of experience."
	requirements := "Python, Django, PostgreSQL, Kubernetes"

	first, err := e.Score(resume, description, requirements)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Score(resume, description, requirements)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed: %+v vs %+v", i, first, again)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.Score(
		"Python Java JavaScript AWS Docker Kubernetes PostgreSQL Redis, 10+ years of experience building backend services.",
		"Backend engineer, 3+ years of experience building backend services.",
		"Python and AWS",
	)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("overall out of range: %d", result.OverallScore)
	}
	if result.SkillScore != 100 {
		t.Errorf("full overlap skill score = %d, want 100", result.SkillScore)
	}
}

func TestRecommendationThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  types.Recommendation
	}{
		{100, types.RecommendationStrongMatch},
		{80, types.RecommendationStrongMatch},
		{79, types.RecommendationMatch},
		{60, types.RecommendationMatch},
		{59, types.RecommendationWeak},
		{40, types.RecommendationWeak},
		{39, types.RecommendationNoMatch},
		{0, types.RecommendationNoMatch},
	}

	for _, tt := range tests {
		if got := recommend(tt.score); got != tt.want {
			t.Errorf("recommend(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestExtractYears(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plus form", "5+ years of Go", 5},
		{"plain form", "3 years experience", 3},
		{"yrs", "7 yrs in ops", 7},
		{"largest wins", "2 years here, 6 years there", 6},
		{"no mention", "senior engineer", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractYears(tt.text); got != tt.want {
				t.Errorf("extractYears(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractSkillsAliases(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"golang alias", "built services in golang", "Go"},
		{"k8s alias", "deployed on k8s", "Kubernetes"},
		{"postgres alias", "tuned postgres queries", "PostgreSQL"},
		{"c++ literal", "wrote C++ for trading systems", "C++"},
		{"amazon web services", "managed Amazon Web Services accounts", "AWS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := e.extractSkills(tt.text)
			for _, s := range found {
				if s == tt.want {
					return
				}
			}
			t.Errorf("extractSkills(%q) = %v, want it to contain %q", tt.text, found, tt.want)
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	a := normalizeTokens("python backend services")
	b := normalizeTokens("python backend services")
	if sim := jaccardSimilarity(a, b); sim != 1 {
		t.Errorf("identical texts similarity = %v, want 1", sim)
	}

	c := normalizeTokens("completely unrelated marketing copywriting")
	if sim := jaccardSimilarity(a, c); sim != 0 {
		t.Errorf("disjoint texts similarity = %v, want 0", sim)
	}

	if sim := jaccardSimilarity(a, normalizeTokens("")); sim != 0 {
		t.Errorf("empty text similarity = %v, want 0", sim)
	}
}
