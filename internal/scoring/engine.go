package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"screenmatch/internal/errors"
	"screenmatch/internal/types"
)

// Thresholds mapping the overall score to a recommendation. Shared by single
// and bulk evaluation.
const (
	thresholdStrongMatch = 80
	thresholdMatch       = 60
	thresholdWeak        = 40
)

var yearsPattern = regexp.MustCompile(`(\d{1,2})\s*\+?\s*(?:years?|yrs?)`)

// Engine scores a resume against a job description. It is pure: no IO, no
// randomness, identical inputs always produce identical results.
type Engine struct {
	skillWeight      float64
	experienceWeight float64
	matchers         []skillMatcher
}

// New creates an Engine with the given blend weights, which must sum to 1.
func New(skillWeight, experienceWeight float64) (*Engine, error) {
	if skillWeight < 0 || experienceWeight < 0 || math.Abs(skillWeight+experienceWeight-1) > 1e-9 {
		return nil, errors.NewConfigError(
			errors.ErrCodeInvalidConfig,
			fmt.Sprintf("scoring weights must be non-negative and sum to 1, got skill=%v experience=%v",
				skillWeight, experienceWeight),
			nil,
		)
	}
	return &Engine{
		skillWeight:      skillWeight,
		experienceWeight: experienceWeight,
		matchers:         compileVocabulary(DefaultVocabulary()),
	}, nil
}

// Score evaluates resumeText against a job description's free text and
// requirements text. Empty resume text or an empty job description is an
// INSUFFICIENT_TEXT error, never a zero score.
func (e *Engine) Score(resumeText, jdDescription, jdRequirements string) (*types.MatchResult, error) {
	jdText := strings.TrimSpace(jdDescription + "\n" + jdRequirements)

	if strings.TrimSpace(resumeText) == "" {
		return nil, errors.NewScoringError(
			errors.ErrCodeInsufficientText,
			"resume contains no text to score",
			nil,
		)
	}
	if jdText == "" {
		return nil, errors.NewScoringError(
			errors.ErrCodeInsufficientText,
			"job description contains no text to score against",
			nil,
		)
	}

	required := e.extractSkills(jdText)
	candidate := e.extractSkills(resumeText)

	matched, missing := intersectSkills(required, candidate)
	skillScore := clampScore(float64(len(matched)) / float64(max(len(required), 1)) * 100)

	experienceScore := e.experienceScore(resumeText, jdText)

	overall := clampScore(e.skillWeight*float64(skillScore) + e.experienceWeight*float64(experienceScore))

	result := &types.MatchResult{
		OverallScore:    overall,
		SkillScore:      skillScore,
		ExperienceScore: experienceScore,
		Recommendation:  recommend(overall),
		MatchedSkills:   matched,
		MissingSkills:   missing,
	}
	result.Summary = baselineSummary(result, len(required))
	return result, nil
}

// extractSkills returns the canonical names of vocabulary skills present in
// the text, in vocabulary order.
func (e *Engine) extractSkills(text string) []string {
	lowered := strings.ToLower(text)
	var found []string
	for _, m := range e.matchers {
		if m.matches(lowered) {
			found = append(found, m.skill.Name)
		}
	}
	return found
}

func intersectSkills(required, candidate []string) (matched, missing []string) {
	have := make(map[string]bool, len(candidate))
	for _, s := range candidate {
		have[s] = true
	}
	for _, s := range required {
		if have[s] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// experienceScore blends stated years of experience against the job's
// minimum with a token-overlap similarity of the two texts. When the job
// states no minimum, the overlap stands alone.
func (e *Engine) experienceScore(resumeText, jdText string) int {
	overlap := jaccardSimilarity(normalizeTokens(resumeText), normalizeTokens(jdText)) * 100

	requiredYears := extractYears(jdText)
	if requiredYears == 0 {
		return clampScore(overlap)
	}

	resumeYears := extractYears(resumeText)
	yearsScore := math.Min(float64(resumeYears)/float64(requiredYears), 1) * 100
	return clampScore(0.5*yearsScore + 0.5*overlap)
}

// extractYears returns the largest "N years" mention in the text, or 0.
func extractYears(text string) int {
	maxYears := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		if years, err := strconv.Atoi(m[1]); err == nil && years > maxYears {
			maxYears = years
		}
	}
	return maxYears
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "are": true, "was": true, "were": true, "have": true,
	"has": true, "had": true, "you": true, "your": true, "our": true,
	"will": true, "can": true, "must": true, "should": true, "from": true,
	"not": true, "all": true, "any": true, "who": true, "what": true,
}

// normalizeTokens lowercases, strips punctuation, and drops stopwords and
// tokens shorter than three characters.
func normalizeTokens(text string) map[string]bool {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(sb.String()) {
		if len(tok) < 3 || stopwords[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func recommend(overall int) types.Recommendation {
	switch {
	case overall >= thresholdStrongMatch:
		return types.RecommendationStrongMatch
	case overall >= thresholdMatch:
		return types.RecommendationMatch
	case overall >= thresholdWeak:
		return types.RecommendationWeak
	default:
		return types.RecommendationNoMatch
	}
}

func baselineSummary(r *types.MatchResult, requiredCount int) string {
	if requiredCount == 0 {
		return fmt.Sprintf("No recognized skills listed in the job description; overall score %d based on text alignment.", r.OverallScore)
	}
	return fmt.Sprintf("Matched %d of %d required skills; overall score %d (%s).",
		len(r.MatchedSkills), requiredCount, r.OverallScore, r.Recommendation)
}

func clampScore(v float64) int {
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
