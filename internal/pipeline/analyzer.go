package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/debug"
	"github.com/vzaikin/claimlens/internal/extract"
	"github.com/vzaikin/claimlens/internal/factcheck"
	"github.com/vzaikin/claimlens/internal/model"
	"github.com/vzaikin/claimlens/internal/store"
	"github.com/vzaikin/claimlens/internal/transcript"
	"github.com/vzaikin/claimlens/internal/validate"
	"github.com/vzaikin/claimlens/internal/worker"
)

// ErrInvalidInput marks requests rejected before any stage runs.
var ErrInvalidInput = errors.New("invalid input")

// Analyzer drives an analysis through its lifecycle: metadata, transcription,
// claim extraction, optional validation, and fact-checking. Stages of one
// analysis never run concurrently with each other; concurrency lives inside
// the batch executor.
type Analyzer struct {
	videos         store.VideoStore
	analyses       store.AnalysisStore
	claims         store.ClaimStore
	transcriptions store.TranscriptionStore

	transcribers map[string]transcript.Provider
	metadata     transcript.MetadataProvider // optional

	extractor extract.ClaimExtractor
	validator *validate.Validator // nil disables the validation stage
	queryGen  *factcheck.QueryGenerator
	resolver  *factcheck.Resolver

	sink       debug.Sink
	logger     *zap.Logger
	supervisor *Supervisor

	extractionModel string
	execOpts        worker.Options
}

// Deps bundles the analyzer's collaborators.
type Deps struct {
	Videos         store.VideoStore
	Analyses       store.AnalysisStore
	Claims         store.ClaimStore
	Transcriptions store.TranscriptionStore

	Transcribers map[string]transcript.Provider
	Metadata     transcript.MetadataProvider

	Extractor extract.ClaimExtractor
	Validator *validate.Validator
	QueryGen  *factcheck.QueryGenerator
	Resolver  *factcheck.Resolver

	Sink   debug.Sink
	Logger *zap.Logger

	ExtractionModel string
	ExecOpts        worker.Options
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(deps Deps) *Analyzer {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := deps.Sink
	if sink == nil {
		sink = debug.NopSink{}
	}
	return &Analyzer{
		videos:          deps.Videos,
		analyses:        deps.Analyses,
		claims:          deps.Claims,
		transcriptions:  deps.Transcriptions,
		transcribers:    deps.Transcribers,
		metadata:        deps.Metadata,
		extractor:       deps.Extractor,
		validator:       deps.Validator,
		queryGen:        deps.QueryGen,
		resolver:        deps.Resolver,
		sink:            sink,
		logger:          logger,
		supervisor:      NewSupervisor(logger),
		extractionModel: deps.ExtractionModel,
		execOpts:        deps.ExecOpts,
	}
}

// Supervisor exposes the background task supervisor so callers can wait for
// continuations to drain.
func (a *Analyzer) Supervisor() *Supervisor { return a.supervisor }

// FindAnalysis returns the current state of an analysis.
func (a *Analyzer) FindAnalysis(ctx context.Context, analysisID string) (*model.Analysis, error) {
	return a.analyses.FindByID(ctx, analysisID)
}

// StartAnalysis begins (or short-circuits) an analysis for a video URL.
// A prior COMPLETE analysis for the same video is returned as-is with no new
// work. Otherwise the analysis advances synchronously through transcription
// and claim extraction and is returned in its current state; fact-checking
// continues in the background.
func (a *Analyzer) StartAnalysis(ctx context.Context, rawURL, provider string) (*model.Analysis, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: missing video URL", ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("%w: malformed video URL: %v", ErrInvalidInput, err)
	}
	transcriber, ok := a.transcribers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transcription provider %q", ErrInvalidInput, provider)
	}

	videoID := model.VideoIDFromURL(rawURL)

	// Cache hit: a finished analysis for this video is authoritative even
	// when a later attempt failed.
	if prior, err := a.analyses.FindCompletedByVideo(ctx, videoID); err == nil {
		a.logger.Info("returning completed analysis",
			zap.String("video_id", videoID), zap.String("analysis_id", prior.ID))
		return prior, nil
	}

	now := time.Now().UTC()
	if err := a.videos.Upsert(ctx, &model.Video{ID: videoID, URL: rawURL, CreatedAt: now}); err != nil {
		return nil, fmt.Errorf("upsert video: %w", err)
	}

	analysis := &model.Analysis{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Status:    model.StatusPending,
		LLMModel:  a.extractionModel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.analyses.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}

	a.logger.Info("analysis started",
		zap.String("analysis_id", analysis.ID), zap.String("video_id", videoID))

	// Metadata is decoration: a fetch failure is logged, never fatal.
	if err := a.setStatus(ctx, analysis, model.StatusFetchingMetadata); err != nil {
		return nil, a.fail(ctx, analysis, "fetching metadata", err)
	}
	a.fetchMetadata(ctx, videoID, rawURL)

	if err := a.setStatus(ctx, analysis, model.StatusTranscribing); err != nil {
		return nil, a.fail(ctx, analysis, "transcription", err)
	}
	result, err := transcriber.Transcribe(ctx, rawURL)
	if err != nil {
		return nil, a.fail(ctx, analysis, "transcription", err)
	}

	transcription := &model.Transcription{
		ID:         uuid.NewString(),
		AnalysisID: analysis.ID,
		FullText:   result.FullText,
		Paragraphs: result.Paragraphs,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.transcriptions.Create(ctx, transcription); err != nil {
		return nil, a.fail(ctx, analysis, "transcription", err)
	}

	claims, err := a.extractClaims(ctx, analysis, transcription)
	if err != nil {
		return nil, a.fail(ctx, analysis, "claim extraction", err)
	}

	a.continueInBackground(analysis.ID, transcription, claims)

	cp := *analysis
	return &cp, nil
}

// RerunExtraction discards an analysis's claims and restarts the pipeline
// from claim extraction, using the stored transcription.
func (a *Analyzer) RerunExtraction(ctx context.Context, analysisID string) (*model.Analysis, error) {
	analysis, err := a.analyses.FindByID(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("find analysis: %w", err)
	}
	transcription, err := a.transcriptions.FindByAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("find transcription: %w", err)
	}

	if err := a.claims.DeleteByAnalysis(ctx, analysisID); err != nil {
		return nil, fmt.Errorf("reset claims: %w", err)
	}

	analysis.Progress = 0
	analysis.ErrorMessage = ""

	claims, err := a.extractClaims(ctx, analysis, transcription)
	if err != nil {
		return nil, a.fail(ctx, analysis, "claim extraction", err)
	}

	a.continueInBackground(analysis.ID, transcription, claims)

	cp := *analysis
	return &cp, nil
}

// extractClaims runs the extraction stage and persists its claims.
// Extraction has no useful partial result, so any failure is fatal for the
// analysis.
func (a *Analyzer) extractClaims(ctx context.Context, analysis *model.Analysis, transcription *model.Transcription) ([]*model.Claim, error) {
	if err := a.setStatus(ctx, analysis, model.StatusExtractingClaims); err != nil {
		return nil, err
	}

	claims, err := a.extractor.Extract(ctx, analysis.ID, transcription)
	if err != nil {
		return nil, err
	}

	for _, claim := range claims {
		if err := a.claims.Create(ctx, claim); err != nil {
			return nil, fmt.Errorf("persist claim: %w", err)
		}
	}

	if data, err := json.Marshal(claims); err == nil {
		a.sink.Record(analysis.ID, "extracted-claims", string(data))
	}

	a.logger.Info("claims extracted",
		zap.String("analysis_id", analysis.ID), zap.Int("count", len(claims)))
	return claims, nil
}

// continueInBackground hands the remaining stages to the supervisor so the
// caller gets its in-progress analysis back immediately.
func (a *Analyzer) continueInBackground(analysisID string, transcription *model.Transcription, claims []*model.Claim) {
	a.supervisor.Go("factcheck:"+analysisID, func(ctx context.Context) error {
		return a.runRemainingStages(ctx, analysisID, transcription, claims)
	})
}

// runRemainingStages drives validation (when enabled) and fact-checking for
// an analysis whose claims are already persisted.
func (a *Analyzer) runRemainingStages(ctx context.Context, analysisID string, transcription *model.Transcription, claims []*model.Claim) error {
	analysis, err := a.analyses.FindByID(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("reload analysis: %w", err)
	}

	if a.validator != nil {
		if err := a.setStatus(ctx, analysis, model.StatusValidatingClaims); err != nil {
			return a.fail(ctx, analysis, "claim validation", err)
		}
		a.validateClaims(ctx, transcription, claims)
	}

	if err := a.setStatus(ctx, analysis, model.StatusFactChecking); err != nil {
		return a.fail(ctx, analysis, "fact-checking", err)
	}

	if len(claims) == 0 {
		analysis.Progress = 100
		return a.complete(ctx, analysis)
	}

	queries := a.queryGen.Generate(ctx, claims)
	if data, err := json.Marshal(queries); err == nil {
		a.sink.Record(analysis.ID, "search-queries", string(data))
	}

	a.factCheckClaims(ctx, analysis, claims, queries)
	return a.complete(ctx, analysis)
}

// validateClaims runs the validation stage through the executor. The
// validator absorbs all failures itself, so units never error.
func (a *Analyzer) validateClaims(ctx context.Context, transcription *model.Transcription, claims []*model.Claim) {
	units := make([]worker.Unit[validate.Result], len(claims))
	for i, claim := range claims {
		c := claim
		units[i] = func(ctx context.Context) (validate.Result, error) {
			return a.validator.Validate(ctx, c, transcription), nil
		}
	}

	opts := a.execOpts
	opts.Retry = worker.RetryPolicy{MaxAttempts: 1}

	outcomes := worker.Run(ctx, units, opts)
	for _, out := range outcomes {
		claim := claims[out.Index]
		claim.ValidationStatus = out.Value.Status
		claim.ValidationExplanation = out.Value.Explanation
		claim.ValidationScore = out.Value.Score
		claim.UpdatedAt = time.Now().UTC()
		if err := a.claims.UpdateByID(ctx, claim); err != nil {
			a.logger.Warn("persist validation result failed",
				zap.String("claim_id", claim.ID), zap.Error(err))
		}
	}
}

// factCheckClaims resolves every claim through the chain in concurrency-
// limited waves, persisting per-claim results and progress as units finish.
func (a *Analyzer) factCheckClaims(ctx context.Context, analysis *model.Analysis, claims []*model.Claim, queries map[string][]string) {
	units := make([]worker.Unit[factcheck.Outcome], len(claims))
	for i, claim := range claims {
		c := claim
		units[i] = func(ctx context.Context) (factcheck.Outcome, error) {
			return a.resolver.Resolve(ctx, c, queries[c.ID])
		}
	}

	var mu sync.Mutex
	done := 0
	total := len(claims)

	worker.RunWithHook(ctx, units, a.execOpts, func(out worker.Outcome[factcheck.Outcome]) {
		outcome := out.Value
		if out.Err != nil {
			a.logger.Warn("fact-check exhausted retries",
				zap.String("claim_id", claims[out.Index].ID),
				zap.Int("attempts", out.Attempts), zap.Error(out.Err))
			outcome = factcheck.FailureOutcome(out.Err)
		}

		mu.Lock()
		defer mu.Unlock()

		claim := claims[out.Index]
		claim.FactCheckStatus = outcome.Status
		claim.Verdict = outcome.Verdict
		claim.VerdictReason = outcome.Reason
		claim.Sources = outcome.Sources
		claim.UpdatedAt = time.Now().UTC()
		if err := a.claims.UpdateByID(ctx, claim); err != nil {
			a.logger.Warn("persist fact-check result failed",
				zap.String("claim_id", claim.ID), zap.Error(err))
		}

		done++
		progress := done * 100 / total
		if done < total {
			// Cap below 100 until the last claim lands, and keep progress
			// monotone across updates.
			if progress > 99 {
				progress = 99
			}
			if progress > analysis.Progress {
				analysis.Progress = progress
			}
			analysis.Status = model.StatusPartiallyComplete
		} else {
			analysis.Progress = 100
		}
		analysis.UpdatedAt = time.Now().UTC()
		if err := a.analyses.Update(ctx, analysis); err != nil {
			a.logger.Warn("persist progress failed",
				zap.String("analysis_id", analysis.ID), zap.Error(err))
		}
	})
}

func (a *Analyzer) fetchMetadata(ctx context.Context, videoID, rawURL string) {
	if a.metadata == nil {
		return
	}
	meta, err := a.metadata.Fetch(ctx, rawURL)
	if err != nil {
		a.logger.Warn("metadata fetch failed", zap.String("video_id", videoID), zap.Error(err))
		return
	}
	video, err := a.videos.FindByID(ctx, videoID)
	if err != nil {
		return
	}
	video.Metadata = meta
	video.Title = meta.Title
	video.Author = meta.Author
	if err := a.videos.Upsert(ctx, video); err != nil {
		a.logger.Warn("persist metadata failed", zap.String("video_id", videoID), zap.Error(err))
	}
}

func (a *Analyzer) setStatus(ctx context.Context, analysis *model.Analysis, status model.AnalysisStatus) error {
	analysis.Status = status
	analysis.UpdatedAt = time.Now().UTC()
	if err := a.analyses.Update(ctx, analysis); err != nil {
		return fmt.Errorf("persist status %s: %w", status, err)
	}
	return nil
}

func (a *Analyzer) complete(ctx context.Context, analysis *model.Analysis) error {
	analysis.Status = model.StatusComplete
	analysis.Progress = 100
	analysis.UpdatedAt = time.Now().UTC()
	if err := a.analyses.Update(ctx, analysis); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}
	a.logger.Info("analysis complete", zap.String("analysis_id", analysis.ID))
	return nil
}

// fail records a stage-fatal error on the analysis with one best-effort
// status write, then surfaces the error to the caller. User-visible failure
// travels solely through the status and errorMessage fields.
func (a *Analyzer) fail(ctx context.Context, analysis *model.Analysis, stage string, err error) error {
	analysis.Status = model.StatusFailed
	analysis.ErrorMessage = fmt.Sprintf("%s failed: %v", stage, err)
	analysis.UpdatedAt = time.Now().UTC()
	if updateErr := a.analyses.Update(ctx, analysis); updateErr != nil {
		a.logger.Error("failed to persist FAILED status",
			zap.String("analysis_id", analysis.ID), zap.Error(updateErr))
	}
	a.logger.Error("analysis failed",
		zap.String("analysis_id", analysis.ID), zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%s: %w", stage, err)
}
