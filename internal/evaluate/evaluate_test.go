package evaluate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"screenmatch/internal/ai"
	"screenmatch/internal/extract"
	"screenmatch/internal/scoring"
	"screenmatch/internal/store"
	"screenmatch/internal/types"
)

type stubRefiner struct {
	mu      sync.Mutex
	calls   int
	fail    bool
	adjust  int
	summary string
}

func (s *stubRefiner) RefineMatch(ctx context.Context, input types.RefineMatchInput) (*types.MatchResult, *ai.TokenUsage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail {
		return nil, nil, fmt.Errorf("model unavailable")
	}
	refined := *input.Baseline
	refined.AIRefined = true
	if s.adjust != 0 {
		refined.OverallScore = s.adjust
	}
	if s.summary != "" {
		refined.Summary = s.summary
	}
	return &refined, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (s *stubRefiner) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubRefiner) Close() error { return nil }

func newTestEvaluator(t *testing.T, opts ...Option) *Evaluator {
	t.Helper()
	engine, err := scoring.New(0.6, 0.4)
	if err != nil {
		t.Fatalf("scoring.New: %v", err)
	}
	return New(extract.New(1<<20), store.NewMemoryStore(), engine, nil, opts...)
}

func testJD() types.JobDescription {
	return types.JobDescription{
		Title:        "Backend Engineer",
		Description:  "We build backend services in Go with 3+ years experience required.",
		Requirements: "Go, PostgreSQL, Docker",
	}
}

func strongResume() []byte {
	return []byte("Backend engineer with 5 years experience building Go services " +
		"backed by PostgreSQL and deployed with Docker on Kubernetes.")
}

func weakResume() []byte {
	return []byte("Graphic designer with experience in branding and illustration work.")
}

func TestEvaluateFile(t *testing.T) {
	ev := newTestEvaluator(t)

	eval, err := ev.EvaluateFile(context.Background(), strongResume(), "strong.txt", testJD())
	if err != nil {
		t.Fatalf("EvaluateFile failed: %v", err)
	}
	if eval.Filename != "strong.txt" {
		t.Errorf("expected filename strong.txt, got %q", eval.Filename)
	}
	if eval.JobTitle != "Backend Engineer" {
		t.Errorf("expected job title Backend Engineer, got %q", eval.JobTitle)
	}
	if eval.Result == nil {
		t.Fatal("expected a match result")
	}
	if eval.Result.SkillScore != 100 {
		t.Errorf("expected skill score 100 for full requirement coverage, got %d", eval.Result.SkillScore)
	}
	if eval.Result.AIRefined {
		t.Error("result should not be marked AI refined without a refiner")
	}
	if eval.EvaluatedAt.IsZero() {
		t.Error("expected EvaluatedAt to be set")
	}
}

func TestEvaluateFileExtractionError(t *testing.T) {
	ev := newTestEvaluator(t)

	_, err := ev.EvaluateFile(context.Background(), []byte("data"), "resume.xlsx", testJD())
	if err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
	if !strings.Contains(err.Error(), ".xlsx") {
		t.Errorf("expected error to name the extension, got %v", err)
	}
}

func TestEvaluateFileRefinement(t *testing.T) {
	refiner := &stubRefiner{adjust: 95, summary: "excellent candidate"}
	ev := newTestEvaluator(t, WithRefiner(refiner))

	eval, err := ev.EvaluateFile(context.Background(), strongResume(), "strong.txt", testJD())
	if err != nil {
		t.Fatalf("EvaluateFile failed: %v", err)
	}
	if refiner.calls != 1 {
		t.Errorf("expected one refiner call, got %d", refiner.calls)
	}
	if !eval.Result.AIRefined {
		t.Error("expected result to be marked AI refined")
	}
	if eval.Result.OverallScore != 95 {
		t.Errorf("expected adjusted score 95, got %d", eval.Result.OverallScore)
	}
	if eval.Result.Summary != "excellent candidate" {
		t.Errorf("expected refined summary, got %q", eval.Result.Summary)
	}
}

func TestEvaluateFileRefinerFailureKeepsBaseline(t *testing.T) {
	refiner := &stubRefiner{fail: true}
	ev := newTestEvaluator(t, WithRefiner(refiner))

	eval, err := ev.EvaluateFile(context.Background(), strongResume(), "strong.txt", testJD())
	if err != nil {
		t.Fatalf("refiner failure must not fail the evaluation: %v", err)
	}
	if refiner.calls != 1 {
		t.Errorf("expected one refiner call, got %d", refiner.calls)
	}
	if eval.Result.AIRefined {
		t.Error("baseline result must not be marked AI refined")
	}
}

func TestEvaluateSaved(t *testing.T) {
	engine, err := scoring.New(0.6, 0.4)
	if err != nil {
		t.Fatalf("scoring.New: %v", err)
	}
	st := store.NewMemoryStore()
	saved, err := st.Save(testJD())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	ev := New(extract.New(1<<20), st, engine, nil)

	eval, err := ev.EvaluateSaved(context.Background(), strongResume(), "strong.txt", saved.ID)
	if err != nil {
		t.Fatalf("EvaluateSaved failed: %v", err)
	}
	if eval.JobTitle != "Backend Engineer" {
		t.Errorf("expected job title from stored record, got %q", eval.JobTitle)
	}

	got, err := st.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UsageCount != saved.UsageCount+1 {
		t.Errorf("expected usage count %d after evaluation, got %d", saved.UsageCount+1, got.UsageCount)
	}
}

func TestEvaluateSavedMissingJD(t *testing.T) {
	ev := newTestEvaluator(t)

	_, err := ev.EvaluateSaved(context.Background(), strongResume(), "strong.txt", 42)
	if err == nil {
		t.Fatal("expected an error for a missing job description")
	}
}

func TestEvaluateBulkRankingAndSummary(t *testing.T) {
	ev := newTestEvaluator(t)

	items := []types.BulkItem{
		{Filename: "weak.txt", Data: weakResume()},
		{Filename: "broken.xlsx", Data: []byte("data")},
		{Filename: "strong.txt", Data: strongResume()},
	}

	report, err := ev.EvaluateBulk(context.Background(), items, testJD())
	if err != nil {
		t.Fatalf("EvaluateBulk failed: %v", err)
	}
	if len(report.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(report.Items))
	}

	if report.Items[0].Filename != "strong.txt" {
		t.Errorf("expected strong.txt ranked first, got %q", report.Items[0].Filename)
	}
	if report.Items[0].Rank != 1 {
		t.Errorf("expected rank 1 for best item, got %d", report.Items[0].Rank)
	}
	if report.Items[1].Filename != "weak.txt" || report.Items[1].Rank != 2 {
		t.Errorf("expected weak.txt at rank 2, got %q rank %d", report.Items[1].Filename, report.Items[1].Rank)
	}

	last := report.Items[2]
	if last.Filename != "broken.xlsx" {
		t.Errorf("expected failed item last, got %q", last.Filename)
	}
	if last.Error == "" || last.Result != nil || last.Rank != 0 {
		t.Errorf("failed item must carry only an error: %+v", last)
	}
	if last.ErrorCode != "UNSUPPORTED_FORMAT" {
		t.Errorf("failed item error code = %q, want UNSUPPORTED_FORMAT", last.ErrorCode)
	}

	s := report.Summary
	if s.Total != 3 || s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("unexpected summary counts: %+v", s)
	}
	want := float64(report.Items[0].Result.OverallScore+report.Items[1].Result.OverallScore) / 2
	if s.AverageScore != want {
		t.Errorf("expected average score %v, got %v", want, s.AverageScore)
	}
	bucketed := 0
	for _, n := range s.Distribution {
		bucketed += n
	}
	if bucketed != 2 {
		t.Errorf("expected 2 items in distribution buckets, got %d (%v)", bucketed, s.Distribution)
	}
}

func TestEvaluateBulkTieOrder(t *testing.T) {
	ev := newTestEvaluator(t)

	// Identical resumes score identically; upload order must break the tie.
	items := []types.BulkItem{
		{Filename: "a.txt", Data: strongResume()},
		{Filename: "b.txt", Data: strongResume()},
		{Filename: "c.txt", Data: strongResume()},
	}

	report, err := ev.EvaluateBulk(context.Background(), items, testJD())
	if err != nil {
		t.Fatalf("EvaluateBulk failed: %v", err)
	}
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if report.Items[i].Filename != want {
			t.Errorf("position %d: expected %q, got %q", i, want, report.Items[i].Filename)
		}
		if report.Items[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, report.Items[i].Rank)
		}
	}
}

func TestEvaluateBulkEmpty(t *testing.T) {
	ev := newTestEvaluator(t)

	_, err := ev.EvaluateBulk(context.Background(), nil, testJD())
	if err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}

func TestEvaluateBulkWorkerBound(t *testing.T) {
	var active, peak atomic.Int32
	refiner := &concurrencyProbe{active: &active, peak: &peak}
	ev := newTestEvaluator(t, WithRefiner(refiner), WithBulkWorkers(2))

	items := make([]types.BulkItem, 8)
	for i := range items {
		items[i] = types.BulkItem{Filename: fmt.Sprintf("r%d.txt", i), Data: strongResume()}
	}

	if _, err := ev.EvaluateBulk(context.Background(), items, testJD()); err != nil {
		t.Fatalf("EvaluateBulk failed: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent workers, observed %d", got)
	}
}

// concurrencyProbe records peak concurrent RefineMatch calls, which tracks
// worker concurrency since refinement runs inside each worker.
type concurrencyProbe struct {
	active *atomic.Int32
	peak   *atomic.Int32
}

func (p *concurrencyProbe) RefineMatch(ctx context.Context, input types.RefineMatchInput) (*types.MatchResult, *ai.TokenUsage, error) {
	n := p.active.Add(1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	defer p.active.Add(-1)
	return input.Baseline, nil, nil
}

func (p *concurrencyProbe) GetModelInfo(ctx context.Context) *ai.ModelInfo { return nil }

func (p *concurrencyProbe) Close() error { return nil }
