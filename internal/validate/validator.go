package validate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
)

// HallucinationExplanation is the fixed explanation attached to claims whose
// timestamp matches no transcript paragraph.
const HallucinationExplanation = "No transcript paragraph contains this claim's timestamp; the claim cannot be traced back to the source."

const validationSystemPrompt = `You check whether an extracted claim faithfully represents its source transcript paragraph.

Statuses:
- VALID: the paragraph states what the claim says
- INACCURATE: the claim distorts numbers, names, or substance
- OUT_OF_CONTEXT: the paragraph says it, but the claim strips qualifying context
- HALLUCINATION: the paragraph does not support the claim at all
- NOT_VERIFIABLE_CLAIM: the claim is opinion, prediction, or otherwise uncheckable

Respond with JSON only:
{"validation_status": "<status>", "explanation": "<one or two sentences>", "confidence_score": <0.0-1.0>}`

// Result is the outcome of validating one claim.
type Result struct {
	Status      model.ValidationStatus
	Explanation string
	Score       float64
}

// Validator checks claims against their local transcript context. Failures
// never escalate: a broken model call degrades to a conservative INACCURATE
// result for that claim alone.
type Validator struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewValidator creates a validator using the given model.
func NewValidator(client llm.Client, modelName string, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{client: client, model: modelName, logger: logger}
}

// Validate locates the paragraph containing the claim's timestamp and asks
// the model to compare claim and paragraph. A claim whose timestamp falls
// outside every paragraph is deterministically a HALLUCINATION; no model
// call is made.
func (v *Validator) Validate(ctx context.Context, claim *model.Claim, t *model.Transcription) Result {
	paragraph, ok := t.ParagraphAt(claim.Timestamp)
	if !ok {
		return Result{
			Status:      model.ValidationHallucination,
			Explanation: HallucinationExplanation,
			Score:       1,
		}
	}

	prompt := fmt.Sprintf("Transcript paragraph (%.1fs-%.1fs):\n%s\n\nClaim (at %.1fs):\n%s",
		float64(paragraph.StartMs)/1000, float64(paragraph.EndMs)/1000,
		paragraph.Text, claim.Timestamp, claim.Text)

	raw, err := v.client.Complete(ctx, llm.CompletionRequest{
		Model:       v.model,
		System:      validationSystemPrompt,
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.1,
	})
	if err != nil {
		v.logger.Warn("claim validation call failed",
			zap.String("claim_id", claim.ID), zap.Error(err))
		return conservativeResult(err)
	}

	var resp struct {
		ValidationStatus string  `json:"validation_status"`
		Explanation      string  `json:"explanation"`
		ConfidenceScore  float64 `json:"confidence_score"`
	}
	if err := llm.DecodeObject(raw, &resp); err != nil {
		v.logger.Warn("claim validation response unparseable",
			zap.String("claim_id", claim.ID), zap.Error(err))
		return conservativeResult(err)
	}

	status := model.ValidationStatus(resp.ValidationStatus)
	if !model.KnownValidationStatus(status) || status == model.ValidationUnverified {
		v.logger.Warn("claim validation returned unknown status",
			zap.String("claim_id", claim.ID), zap.String("status", resp.ValidationStatus))
		return conservativeResult(fmt.Errorf("unknown status %q", resp.ValidationStatus))
	}

	score := resp.ConfidenceScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return Result{Status: status, Explanation: resp.Explanation, Score: score}
}

func conservativeResult(err error) Result {
	return Result{
		Status:      model.ValidationInaccurate,
		Explanation: fmt.Sprintf("Validation could not be completed: %v", err),
		Score:       0,
	}
}
