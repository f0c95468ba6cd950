package transcript

import (
	"context"
	"fmt"

	"github.com/vzaikin/claimlens/internal/model"
)

// Result is the output of a transcription provider.
type Result struct {
	FullText   string
	Paragraphs []model.Paragraph
}

// Provider obtains a transcript for a video URL. Implementations wrap
// external services or subprocess invocations; the pipeline only sees this
// interface.
type Provider interface {
	Transcribe(ctx context.Context, videoURL string) (*Result, error)
}

// MetadataProvider fetches optional video metadata. Failures are non-fatal
// to the pipeline; metadata only decorates the Video record.
type MetadataProvider interface {
	Fetch(ctx context.Context, videoURL string) (*model.VideoMetadata, error)
}

// TranscriptionError wraps a failed transcription attempt.
type TranscriptionError struct {
	URL string
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.URL, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
