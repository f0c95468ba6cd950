package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vzaikin/claimlens/internal/extract"
	"github.com/vzaikin/claimlens/internal/factcheck"
	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
	"github.com/vzaikin/claimlens/internal/store"
	"github.com/vzaikin/claimlens/internal/transcript"
	"github.com/vzaikin/claimlens/internal/validate"
	"github.com/vzaikin/claimlens/internal/worker"
)

type fakeProvider struct {
	result *transcript.Result
	err    error
	calls  int32
}

func (f *fakeProvider) Transcribe(ctx context.Context, videoURL string) (*transcript.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeExtractor struct {
	texts []string
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, analysisID string, t *model.Transcription) ([]*model.Claim, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims := make([]*model.Claim, len(f.texts))
	for i, text := range f.texts {
		claims[i] = model.NewClaim(fmt.Sprintf("%s-claim-%d", analysisID, i), analysisID, text, float64(i*10))
	}
	return claims, nil
}

type fakeAuthority struct {
	result *factcheck.AuthorityResult
}

func (f *fakeAuthority) Lookup(ctx context.Context, claimText string) (*factcheck.AuthorityResult, error) {
	return f.result, nil
}

type fakeSearch struct{}

func (fakeSearch) Search(ctx context.Context, query string) ([]factcheck.SearchResult, error) {
	return nil, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// analysisWrite is one persisted analysis state, in write order.
type analysisWrite struct {
	Progress int
	Status   model.AnalysisStatus
}

// recordingAnalyses captures every persisted analysis update so tests can
// assert on the sequence of writes, not just the final state.
type recordingAnalyses struct {
	*store.MemoryAnalyses

	mu     sync.Mutex
	writes []analysisWrite
}

func (r *recordingAnalyses) Update(ctx context.Context, a *model.Analysis) error {
	r.mu.Lock()
	r.writes = append(r.writes, analysisWrite{Progress: a.Progress, Status: a.Status})
	r.mu.Unlock()
	return r.MemoryAnalyses.Update(ctx, a)
}

func (r *recordingAnalyses) recorded() []analysisWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]analysisWrite(nil), r.writes...)
}

type harness struct {
	analyzer *Analyzer
	claims   *store.MemoryClaims
	analyses *recordingAnalyses
	provider *fakeProvider
}

// newHarness wires an analyzer over in-memory stores. The authority answers
// every claim so the chain short-circuits without search or judge calls;
// query generation degrades to deterministic fallbacks.
func newHarness(t *testing.T, extractor extract.ClaimExtractor, validator *validate.Validator) *harness {
	t.Helper()

	opts := worker.Options{Limit: 2, Retry: worker.RetryPolicy{MaxAttempts: 1}}
	queryLLM := &fakeLLM{err: errors.New("queries unavailable")}
	authority := &fakeAuthority{result: &factcheck.AuthorityResult{
		Rating:    "True",
		Publisher: "Test Index",
		URL:       "https://factcheck.example.com/1",
	}}
	judge := factcheck.NewJudge(&fakeLLM{err: errors.New("judge unavailable")}, "m")

	provider := &fakeProvider{result: &transcript.Result{
		FullText: "The dam opened in 1936.",
		Paragraphs: []model.Paragraph{
			{Text: "The dam opened in 1936.", StartMs: 0, EndMs: 60000},
		},
	}}

	claims := store.NewMemoryClaims()
	analyses := &recordingAnalyses{MemoryAnalyses: store.NewMemoryAnalyses()}
	analyzer := NewAnalyzer(Deps{
		Videos:          store.NewMemoryVideos(),
		Analyses:        analyses,
		Claims:          claims,
		Transcriptions:  store.NewMemoryTranscriptions(),
		Transcribers:    map[string]transcript.Provider{"fake": provider},
		Extractor:       extractor,
		Validator:       validator,
		QueryGen:        factcheck.NewQueryGenerator(queryLLM, "m", 5, opts, nil),
		Resolver:        factcheck.NewResolver(authority, fakeSearch{}, judge, nil, nil),
		ExtractionModel: "test-model",
		ExecOpts:        opts,
	})

	return &harness{analyzer: analyzer, claims: claims, analyses: analyses, provider: provider}
}

func TestAnalyzer_StartAnalysis_RunsToCompletion(t *testing.T) {
	h := newHarness(t, &fakeExtractor{texts: []string{"claim one", "claim two"}}, nil)
	ctx := context.Background()

	analysis, err := h.analyzer.StartAnalysis(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	if analysis.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want the YouTube ID", analysis.VideoID)
	}

	h.analyzer.Supervisor().Wait()

	final, err := h.analyzer.FindAnalysis(ctx, analysis.ID)
	if err != nil {
		t.Fatalf("FindAnalysis failed: %v", err)
	}
	if final.Status != model.StatusComplete {
		t.Errorf("Status = %s, want COMPLETE", final.Status)
	}
	if final.Progress != 100 {
		t.Errorf("Progress = %d, want 100", final.Progress)
	}

	claims, _ := h.claims.FindByAnalysis(ctx, analysis.ID)
	if len(claims) != 2 {
		t.Fatalf("Expected 2 persisted claims, got %d", len(claims))
	}
	for i, c := range claims {
		if c.FactCheckStatus != model.FactCheckCompleted {
			t.Errorf("Claim %d FactCheckStatus = %s, want COMPLETED", i, c.FactCheckStatus)
		}
		if c.Verdict != model.VerdictTrue {
			t.Errorf("Claim %d Verdict = %s, want TRUE from the authority", i, c.Verdict)
		}
		if len(c.Sources) != 1 {
			t.Errorf("Claim %d Sources = %+v, want the authority source", i, c.Sources)
		}
	}
}

func TestAnalyzer_StartAnalysis_CompletedAnalysisIsReused(t *testing.T) {
	h := newHarness(t, &fakeExtractor{texts: []string{"claim"}}, nil)
	ctx := context.Background()

	first, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("First StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	second, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("Second StartAnalysis failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Second run created analysis %s, want reuse of %s", second.ID, first.ID)
	}
	if calls := atomic.LoadInt32(&h.provider.calls); calls != 1 {
		t.Errorf("Transcriber called %d times, want 1", calls)
	}
}

func TestAnalyzer_StartAnalysis_RejectsBadInput(t *testing.T) {
	h := newHarness(t, &fakeExtractor{}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		url      string
		provider string
	}{
		{"empty URL", "", "fake"},
		{"malformed URL", "not a url", "fake"},
		{"unknown provider", "https://youtu.be/dQw4w9WgXcQ", "whisper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.analyzer.StartAnalysis(ctx, tt.url, tt.provider)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAnalyzer_StartAnalysis_ExtractionFailureMarksFailed(t *testing.T) {
	h := newHarness(t, &fakeExtractor{err: errors.New("contract violated")}, nil)
	ctx := context.Background()

	_, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err == nil {
		t.Fatal("Expected error from extraction failure")
	}

	latest, findErr := h.analyses.FindLatestByVideo(ctx, "dQw4w9WgXcQ")
	if findErr != nil {
		t.Fatalf("FindLatestByVideo failed: %v", findErr)
	}
	if latest.Status != model.StatusFailed {
		t.Errorf("Status = %s, want FAILED", latest.Status)
	}
	if latest.ErrorMessage == "" {
		t.Error("Expected ErrorMessage to record the failure")
	}
}

func TestAnalyzer_StartAnalysis_TranscriptionFailureMarksFailed(t *testing.T) {
	h := newHarness(t, &fakeExtractor{texts: []string{"claim"}}, nil)
	h.provider.err = errors.New("no captions available")
	ctx := context.Background()

	_, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err == nil {
		t.Fatal("Expected error from transcription failure")
	}

	latest, _ := h.analyses.FindLatestByVideo(ctx, "dQw4w9WgXcQ")
	if latest.Status != model.StatusFailed {
		t.Errorf("Status = %s, want FAILED", latest.Status)
	}
}

func TestAnalyzer_StartAnalysis_NoClaimsCompletesImmediately(t *testing.T) {
	h := newHarness(t, &fakeExtractor{texts: nil}, nil)
	ctx := context.Background()

	analysis, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	final, _ := h.analyzer.FindAnalysis(ctx, analysis.ID)
	if final.Status != model.StatusComplete {
		t.Errorf("Status = %s, want COMPLETE for a claim-free transcript", final.Status)
	}
	if final.Progress != 100 {
		t.Errorf("Progress = %d, want 100", final.Progress)
	}
}

func TestAnalyzer_ValidationStageRunsWhenEnabled(t *testing.T) {
	validator := validate.NewValidator(&fakeLLM{
		response: `{"validation_status": "VALID", "explanation": "Matches.", "confidence_score": 0.8}`,
	}, "m", nil)
	h := newHarness(t, &fakeExtractor{texts: []string{"The dam opened in 1936"}}, validator)
	ctx := context.Background()

	analysis, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	claims, _ := h.claims.FindByAnalysis(ctx, analysis.ID)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].ValidationStatus != model.ValidationValid {
		t.Errorf("ValidationStatus = %s, want VALID", claims[0].ValidationStatus)
	}
	if claims[0].ValidationScore != 0.8 {
		t.Errorf("ValidationScore = %v, want 0.8", claims[0].ValidationScore)
	}
}

func TestAnalyzer_RerunExtraction_ReplacesClaims(t *testing.T) {
	extractor := &fakeExtractor{texts: []string{"first claim", "second claim"}}
	h := newHarness(t, extractor, nil)
	ctx := context.Background()

	analysis, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	extractor.texts = []string{"replacement claim"}
	rerun, err := h.analyzer.RerunExtraction(ctx, analysis.ID)
	if err != nil {
		t.Fatalf("RerunExtraction failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	claims, _ := h.claims.FindByAnalysis(ctx, rerun.ID)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim after rerun, got %d", len(claims))
	}
	if claims[0].Text != "replacement claim" {
		t.Errorf("Claim text = %q, want the rerun extraction output", claims[0].Text)
	}

	final, _ := h.analyzer.FindAnalysis(ctx, analysis.ID)
	if final.Status != model.StatusComplete {
		t.Errorf("Status = %s, want COMPLETE after rerun", final.Status)
	}
}

func TestAnalyzer_ProgressReaches100(t *testing.T) {
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("claim number %d", i)
	}
	h := newHarness(t, &fakeExtractor{texts: texts}, nil)
	ctx := context.Background()

	analysis, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	final, _ := h.analyzer.FindAnalysis(ctx, analysis.ID)
	if final.Progress != 100 {
		t.Errorf("Progress = %d, want 100", final.Progress)
	}
	if final.Status != model.StatusComplete {
		t.Errorf("Status = %s, want COMPLETE", final.Status)
	}

	claims, _ := h.claims.FindByAnalysis(ctx, analysis.ID)
	for i, c := range claims {
		if c.FactCheckStatus != model.FactCheckCompleted {
			t.Errorf("Claim %d FactCheckStatus = %s, want COMPLETED", i, c.FactCheckStatus)
		}
	}
}

func TestAnalyzer_PersistedProgressIsMonotone(t *testing.T) {
	texts := make([]string, 9)
	for i := range texts {
		texts[i] = fmt.Sprintf("claim number %d", i)
	}
	h := newHarness(t, &fakeExtractor{texts: texts}, nil)
	ctx := context.Background()

	if _, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake"); err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	writes := h.analyses.recorded()
	if len(writes) == 0 {
		t.Fatal("No analysis updates were persisted")
	}

	prev := 0
	sawPartial := false
	for i, w := range writes {
		if w.Progress < prev {
			t.Errorf("Write %d regressed progress from %d to %d", i, prev, w.Progress)
		}
		prev = w.Progress
		if w.Progress > 0 && w.Progress < 100 {
			sawPartial = true
			if w.Status != model.StatusPartiallyComplete && w.Status != model.StatusFactChecking {
				t.Errorf("Write %d has partial progress %d in status %s", i, w.Progress, w.Status)
			}
		}
	}
	if !sawPartial {
		t.Error("Expected at least one intermediate progress write below 100")
	}

	last := writes[len(writes)-1]
	if last.Progress != 100 || last.Status != model.StatusComplete {
		t.Errorf("Terminal write = %+v, want progress 100 and COMPLETE", last)
	}
}

func TestAnalyzer_StartAnalysis_CompletedRunSurvivesLaterFailure(t *testing.T) {
	h := newHarness(t, &fakeExtractor{texts: []string{"claim"}}, nil)
	ctx := context.Background()

	first, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("First StartAnalysis failed: %v", err)
	}
	h.analyzer.Supervisor().Wait()

	// Seed a later FAILED run so it is the most recent analysis for the
	// video.
	failed := &model.Analysis{
		ID:      "later-failed",
		VideoID: first.VideoID,
		Status:  model.StatusFailed,
	}
	if err := h.analyses.Create(ctx, failed); err != nil {
		t.Fatalf("Create failed analysis: %v", err)
	}

	third, err := h.analyzer.StartAnalysis(ctx, "https://youtu.be/dQw4w9WgXcQ", "fake")
	if err != nil {
		t.Fatalf("Third StartAnalysis failed: %v", err)
	}
	if third.ID != first.ID {
		t.Errorf("Got analysis %s, want reuse of completed %s", third.ID, first.ID)
	}
	if calls := atomic.LoadInt32(&h.provider.calls); calls != 1 {
		t.Errorf("Transcriber called %d times, want 1", calls)
	}
}
