package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vzaikin/claimlens/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// StorageError wraps a failed store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// VideoStore persists videos keyed by their derived identifier.
type VideoStore interface {
	// Upsert creates the video or replaces the existing record with the
	// same identifier. One Video per identifier, never duplicated.
	Upsert(ctx context.Context, v *model.Video) error
	FindByID(ctx context.Context, id string) (*model.Video, error)
}

// AnalysisStore persists analysis records.
type AnalysisStore interface {
	Create(ctx context.Context, a *model.Analysis) error
	FindByID(ctx context.Context, id string) (*model.Analysis, error)
	// FindLatestByVideo returns the most recently created analysis for a
	// video, or ErrNotFound.
	FindLatestByVideo(ctx context.Context, videoID string) (*model.Analysis, error)
	// FindCompletedByVideo returns the most recently created COMPLETE
	// analysis for a video, or ErrNotFound. A later FAILED run does not
	// hide an earlier completed one.
	FindCompletedByVideo(ctx context.Context, videoID string) (*model.Analysis, error)
	Update(ctx context.Context, a *model.Analysis) error
}

// ClaimStore persists claims keyed by identifier and grouped by analysis.
type ClaimStore interface {
	Create(ctx context.Context, c *model.Claim) error
	FindByAnalysis(ctx context.Context, analysisID string) ([]*model.Claim, error)
	UpdateByID(ctx context.Context, c *model.Claim) error
	// DeleteByAnalysis removes all claims for an analysis. Used when
	// extraction is re-run.
	DeleteByAnalysis(ctx context.Context, analysisID string) error
}

// TranscriptionStore persists transcriptions, one per analysis.
type TranscriptionStore interface {
	Create(ctx context.Context, t *model.Transcription) error
	FindByAnalysis(ctx context.Context, analysisID string) (*model.Transcription, error)
}
