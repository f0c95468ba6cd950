package model

import "time"

// ValidationStatus is the outcome of checking a claim against its local
// transcript context.
type ValidationStatus string

const (
	ValidationValid         ValidationStatus = "VALID"
	ValidationInaccurate    ValidationStatus = "INACCURATE"
	ValidationOutOfContext  ValidationStatus = "OUT_OF_CONTEXT"
	ValidationHallucination ValidationStatus = "HALLUCINATION"
	ValidationNotVerifiable ValidationStatus = "NOT_VERIFIABLE_CLAIM"
	ValidationUnverified    ValidationStatus = "UNVERIFIED" // default before validation runs
)

// KnownValidationStatus reports whether s is one of the defined statuses.
func KnownValidationStatus(s ValidationStatus) bool {
	switch s {
	case ValidationValid, ValidationInaccurate, ValidationOutOfContext,
		ValidationHallucination, ValidationNotVerifiable, ValidationUnverified:
		return true
	}
	return false
}

// FactCheckStatus tracks the fact-check lifecycle of a single claim.
type FactCheckStatus string

const (
	FactCheckPending   FactCheckStatus = "PENDING"
	FactCheckCompleted FactCheckStatus = "COMPLETED"
	FactCheckFailed    FactCheckStatus = "FAILED"
)

// Verdict is the outcome of external fact-checking.
type Verdict string

const (
	VerdictTrue         Verdict = "TRUE"
	VerdictFalse        Verdict = "FALSE"
	VerdictMisleading   Verdict = "MISLEADING"
	VerdictUnverifiable Verdict = "UNVERIFIABLE"
)

// KnownVerdict reports whether v is one of the defined verdicts.
func KnownVerdict(v Verdict) bool {
	switch v {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverifiable:
		return true
	}
	return false
}

// Source attributes a verdict to an external page.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Claim is a discrete factual assertion extracted from a transcript,
// anchored to a timestamp. Claims are created once per extraction run and
// mutated in place by the validation and fact-checking stages.
type Claim struct {
	ID         string  `json:"id"`
	AnalysisID string  `json:"analysis_id"`
	Text       string  `json:"text"`
	Timestamp  float64 `json:"timestamp"` // seconds from video start

	ValidationStatus      ValidationStatus `json:"validation_status"`
	ValidationExplanation string           `json:"validation_explanation,omitempty"`
	ValidationScore       float64          `json:"validation_score"` // 0-1

	FactCheckStatus FactCheckStatus `json:"fact_check_status"`
	Verdict         Verdict         `json:"verdict,omitempty"`
	VerdictReason   string          `json:"verdict_reason,omitempty"`
	Sources         []Source        `json:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClaim returns a claim with stage defaults applied.
func NewClaim(id, analysisID, text string, timestamp float64) *Claim {
	now := time.Now().UTC()
	return &Claim{
		ID:               id,
		AnalysisID:       analysisID,
		Text:             text,
		Timestamp:        timestamp,
		ValidationStatus: ValidationUnverified,
		FactCheckStatus:  FactCheckPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
