package model

import "testing"

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts URL", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VideoIDFromURL(tt.url); got != tt.want {
				t.Errorf("VideoIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestVideoIDFromURL_NonYouTubeIsHashed(t *testing.T) {
	id := VideoIDFromURL("https://vimeo.com/123456789")
	if len(id) != 16 {
		t.Errorf("Hashed ID length = %d, want 16 hex chars", len(id))
	}

	// Same URL, same ID; different URL, different ID.
	if VideoIDFromURL("https://vimeo.com/123456789") != id {
		t.Error("Video ID is not stable for the same URL")
	}
	if VideoIDFromURL("https://vimeo.com/987654321") == id {
		t.Error("Different URLs produced the same ID")
	}
}
