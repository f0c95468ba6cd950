package model

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"
)

// Video represents a single video source. One Video exists per identifier;
// repeated analyses of the same URL upsert rather than duplicate.
type Video struct {
	ID        string         `json:"id"`
	URL       string         `json:"url"`
	Title     string         `json:"title,omitempty"`
	Author    string         `json:"author,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  *VideoMetadata `json:"metadata,omitempty"`
}

// VideoMetadata holds optional descriptive fields fetched from the source.
type VideoMetadata struct {
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author,omitempty"`
	Description  string     `json:"description,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

var youtubeIDRegex = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/|/v/|/shorts/)([a-zA-Z0-9_-]{11})`)

// VideoIDFromURL derives a stable video identifier from a source URL.
// YouTube-style URLs map to the 11-character video ID; anything else gets a
// truncated hash of the raw URL so the identifier stays storage-friendly.
func VideoIDFromURL(rawURL string) string {
	if m := youtubeIDRegex.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8])
}
