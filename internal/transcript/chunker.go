package transcript

import "github.com/vzaikin/claimlens/internal/model"

// Chunker splits a transcript into extraction-sized pieces, each carrying
// its own paragraphs so timestamps survive the split. Claim extraction
// issues one model call per chunk.
type Chunker interface {
	Chunk(t *model.Transcription) []*model.Transcription
}

// SingleChunk passes the full transcript through as one chunk.
type SingleChunk struct{}

func (SingleChunk) Chunk(t *model.Transcription) []*model.Transcription {
	return []*model.Transcription{t}
}
