package model

import "time"

// Transcription holds the full transcript of a video plus its structured
// form. Immutable once created.
type Transcription struct {
	ID         string      `json:"id"`
	AnalysisID string      `json:"analysis_id"`
	FullText   string      `json:"full_text"`
	Paragraphs []Paragraph `json:"paragraphs"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Paragraph is a contiguous span of transcript text with millisecond offsets.
type Paragraph struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Words   []Word `json:"words,omitempty"`
}

// Word is a single token with millisecond offsets.
type Word struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// ParagraphAt returns the paragraph whose time range contains the given
// timestamp (in seconds). Paragraph offsets are milliseconds; the comparison
// is inclusive on both ends.
func (t *Transcription) ParagraphAt(seconds float64) (*Paragraph, bool) {
	ms := int64(seconds * 1000)
	for i := range t.Paragraphs {
		p := &t.Paragraphs[i]
		if p.StartMs <= ms && ms <= p.EndMs {
			return p, true
		}
	}
	return nil, false
}

// DurationMs returns the end offset of the last paragraph.
func (t *Transcription) DurationMs() int64 {
	if len(t.Paragraphs) == 0 {
		return 0
	}
	return t.Paragraphs[len(t.Paragraphs)-1].EndMs
}
