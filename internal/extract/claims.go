package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
	"github.com/vzaikin/claimlens/internal/transcript"
)

// ClaimExtractor produces claims for an analysis from its transcript.
type ClaimExtractor interface {
	Extract(ctx context.Context, analysisID string, t *model.Transcription) ([]*model.Claim, error)
}

const extractionSystemPrompt = `You extract checkable factual claims from video transcripts.

A claim is a single, self-contained factual assertion that could be verified
or refuted with external evidence. Skip opinions, predictions, questions,
and rhetorical statements.

Respond with JSON only:
{"claims": [{"claim": "<assertion in its own words>", "timestamp": <seconds from video start>}]}

Use the [Ns] markers in the transcript for timestamps. Return {"claims": []}
if the transcript contains no checkable claims.`

// LLMExtractor extracts claims with one model call per transcript chunk.
// A malformed response is a hard failure for the whole stage; there is no
// useful partial result.
type LLMExtractor struct {
	client  llm.Client
	model   string
	chunker transcript.Chunker
}

// NewLLMExtractor creates an extractor using the given model.
func NewLLMExtractor(client llm.Client, modelName string) *LLMExtractor {
	return &LLMExtractor{
		client:  client,
		model:   modelName,
		chunker: transcript.SingleChunk{},
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, analysisID string, t *model.Transcription) ([]*model.Claim, error) {
	var claims []*model.Claim

	// Timestamps are clamped against the full transcript, not the chunk,
	// so a claim anchored late in a long video survives splitting.
	duration := float64(t.DurationMs()) / 1000

	for _, chunk := range e.chunker.Chunk(t) {
		raw, err := e.client.Complete(ctx, llm.CompletionRequest{
			Model:       e.model,
			System:      extractionSystemPrompt,
			Prompt:      timestampedTranscript(chunk),
			JSONMode:    true,
			Temperature: 0.2,
		})
		if err != nil {
			return nil, fmt.Errorf("claim extraction call: %w", err)
		}

		parsed, err := parseClaims(raw)
		if err != nil {
			return nil, fmt.Errorf("claim extraction: %w", err)
		}

		for _, pc := range parsed {
			ts := pc.Timestamp
			if ts < 0 {
				ts = 0
			}
			// Clamp runaway timestamps to the transcript duration so a
			// model slip does not plant a claim hours past the video end.
			if duration > 0 && ts > duration {
				ts = duration
			}
			claims = append(claims, model.NewClaim(uuid.NewString(), analysisID, pc.Claim, ts))
		}
	}

	return claims, nil
}

type parsedClaim struct {
	Claim     string  `json:"claim"`
	Timestamp float64 `json:"timestamp"`
}

// parseClaims enforces the extraction contract: the response must be a JSON
// object with a "claims" array of {claim, timestamp} entries.
func parseClaims(raw string) ([]parsedClaim, error) {
	var resp struct {
		Claims *[]parsedClaim `json:"claims"`
	}
	if err := llm.DecodeObject(raw, &resp); err != nil {
		return nil, err
	}
	if resp.Claims == nil {
		return nil, &llm.ParseError{Reason: `missing "claims" field`, Raw: raw}
	}

	out := make([]parsedClaim, 0, len(*resp.Claims))
	for _, c := range *resp.Claims {
		if strings.TrimSpace(c.Claim) == "" {
			return nil, &llm.ParseError{Reason: "claim entry with empty text", Raw: raw}
		}
		out = append(out, c)
	}
	return out, nil
}

// timestampedTranscript renders paragraphs with second markers so the model
// can anchor claims in time.
func timestampedTranscript(t *model.Transcription) string {
	if len(t.Paragraphs) == 0 {
		return t.FullText
	}
	var b strings.Builder
	for _, p := range t.Paragraphs {
		fmt.Fprintf(&b, "[%.1fs] %s\n", float64(p.StartMs)/1000, p.Text)
	}
	return b.String()
}

// SamplingExtractor is the deterministic mock mode: instead of calling a
// model it re-issues the first maxClaims claims previously persisted for a
// source analysis. Used in tests and local development.
type SamplingExtractor struct {
	claims    claimLister
	sourceID  string
	maxClaims int
}

type claimLister interface {
	FindByAnalysis(ctx context.Context, analysisID string) ([]*model.Claim, error)
}

// NewSamplingExtractor creates the mock extractor.
func NewSamplingExtractor(claims claimLister, sourceAnalysisID string, maxClaims int) *SamplingExtractor {
	if maxClaims <= 0 {
		maxClaims = 10
	}
	return &SamplingExtractor{claims: claims, sourceID: sourceAnalysisID, maxClaims: maxClaims}
}

func (e *SamplingExtractor) Extract(ctx context.Context, analysisID string, _ *model.Transcription) ([]*model.Claim, error) {
	persisted, err := e.claims.FindByAnalysis(ctx, e.sourceID)
	if err != nil {
		return nil, fmt.Errorf("sample claims: %w", err)
	}

	n := len(persisted)
	if n > e.maxClaims {
		n = e.maxClaims
	}
	out := make([]*model.Claim, 0, n)
	for _, src := range persisted[:n] {
		out = append(out, model.NewClaim(uuid.NewString(), analysisID, src.Text, src.Timestamp))
	}
	return out, nil
}
