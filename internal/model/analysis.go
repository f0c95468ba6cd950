package model

import "time"

// AnalysisStatus is the lifecycle state of an analysis run.
type AnalysisStatus string

const (
	StatusPending           AnalysisStatus = "PENDING"
	StatusFetchingMetadata  AnalysisStatus = "FETCHING_METADATA"
	StatusTranscribing      AnalysisStatus = "TRANSCRIBING"
	StatusExtractingClaims  AnalysisStatus = "EXTRACTING_CLAIMS"
	StatusValidatingClaims  AnalysisStatus = "VALIDATING_CLAIMS"
	StatusFactChecking      AnalysisStatus = "FACT_CHECKING"
	StatusPartiallyComplete AnalysisStatus = "PARTIALLY_COMPLETE"
	StatusComplete          AnalysisStatus = "COMPLETE"
	StatusFailed            AnalysisStatus = "FAILED"
)

// Terminal reports whether no further stage may run for this status.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Analysis is one end-to-end pipeline run for a video.
type Analysis struct {
	ID           string         `json:"id"`
	VideoID      string         `json:"video_id"`
	Status       AnalysisStatus `json:"status"`
	Progress     int            `json:"progress"` // 0-100, monotonically non-decreasing per run
	ErrorMessage string         `json:"error_message,omitempty"`
	LLMModel     string         `json:"llm_model,omitempty"` // model used for claim extraction
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
