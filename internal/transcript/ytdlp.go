package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vzaikin/claimlens/internal/model"
)

// YtDlpProvider fetches auto-generated captions through the yt-dlp binary
// and shapes them into timestamped paragraphs. It also serves as the
// metadata provider, since yt-dlp can print title and channel without
// downloading anything.
type YtDlpProvider struct {
	binary string
}

// NewYtDlpProvider locates yt-dlp on PATH.
func NewYtDlpProvider() (*YtDlpProvider, error) {
	path, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	return &YtDlpProvider{binary: path}, nil
}

// json3 caption format produced by yt-dlp.
type captionFile struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8      string `json:"utf8"`
			TOffsetMs int64  `json:"tOffsetMs"`
		} `json:"segs"`
	} `json:"events"`
}

// Transcribe downloads captions for the video and converts them into a
// transcript result.
func (p *YtDlpProvider) Transcribe(ctx context.Context, videoURL string) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "claimlens-captions-*")
	if err != nil {
		return nil, &TranscriptionError{URL: videoURL, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	args := []string{
		"--write-auto-sub",
		"--sub-lang", "en,en-orig",
		"--sub-format", "json3",
		"--skip-download",
		"-o", filepath.Join(tmpDir, "video"),
		videoURL,
	}
	cmd := exec.CommandContext(ctx, p.binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &TranscriptionError{
			URL: videoURL,
			Err: fmt.Errorf("yt-dlp: %s", strings.TrimSpace(stderr.String())),
		}
	}

	matches, _ := filepath.Glob(filepath.Join(tmpDir, "*.json3"))
	if len(matches) == 0 {
		return nil, &TranscriptionError{URL: videoURL, Err: fmt.Errorf("no captions generated")}
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, &TranscriptionError{URL: videoURL, Err: err}
	}

	var captions captionFile
	if err := json.Unmarshal(data, &captions); err != nil {
		return nil, &TranscriptionError{URL: videoURL, Err: fmt.Errorf("parse captions: %w", err)}
	}

	result := captionsToResult(captions)
	if result.FullText == "" {
		return nil, &TranscriptionError{URL: videoURL, Err: fmt.Errorf("empty transcript")}
	}
	return result, nil
}

// Fetch prints video metadata without downloading.
func (p *YtDlpProvider) Fetch(ctx context.Context, videoURL string) (*model.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"--skip-download",
		"--print", "%(title)s\n%(channel)s\n%(thumbnail)s",
		videoURL,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata: %w", err)
	}

	lines := strings.SplitN(strings.TrimSpace(string(out)), "\n", 3)
	meta := &model.VideoMetadata{}
	if len(lines) > 0 {
		meta.Title = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		meta.Author = strings.TrimSpace(lines[1])
	}
	if len(lines) > 2 {
		meta.ThumbnailURL = strings.TrimSpace(lines[2])
	}
	return meta, nil
}

// captionsToResult groups caption events into paragraphs. Each event
// becomes one paragraph; segment offsets become word timings.
func captionsToResult(captions captionFile) *Result {
	var full strings.Builder
	var paragraphs []model.Paragraph

	for _, ev := range captions.Events {
		var text strings.Builder
		var words []model.Word
		for _, seg := range ev.Segs {
			token := strings.TrimSpace(seg.UTF8)
			if token == "" {
				continue
			}
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(token)
			words = append(words, model.Word{
				Text:    token,
				StartMs: ev.TStartMs + seg.TOffsetMs,
				EndMs:   ev.TStartMs + ev.DDurationMs,
			})
		}
		if text.Len() == 0 {
			continue
		}

		paragraphs = append(paragraphs, model.Paragraph{
			Text:    text.String(),
			StartMs: ev.TStartMs,
			EndMs:   ev.TStartMs + ev.DDurationMs,
			Words:   words,
		})
		if full.Len() > 0 {
			full.WriteByte(' ')
		}
		full.WriteString(text.String())
	}

	return &Result{FullText: full.String(), Paragraphs: paragraphs}
}
