package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink receives intermediate pipeline artifacts (raw model responses, query
// maps, per-claim outcomes). Strictly best-effort: implementations never
// return errors to the pipeline, and the pipeline never depends on a
// recorded artifact.
type Sink interface {
	Record(analysisID, label, content string)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Record(string, string, string) {}

// FileSink writes artifacts under dir/<analysisID>/<seq>-<label>.txt.
type FileSink struct {
	dir    string
	seq    atomic.Int64
	logger *zap.Logger
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Record(analysisID, label, content string) {
	runDir := filepath.Join(s.dir, sanitize(analysisID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		s.logger.Debug("debug sink mkdir failed", zap.Error(err))
		return
	}

	name := fmt.Sprintf("%s-%03d-%s.txt",
		time.Now().UTC().Format("150405"), s.seq.Add(1), sanitize(label))
	if err := os.WriteFile(filepath.Join(runDir, name), []byte(content), 0o644); err != nil {
		s.logger.Debug("debug sink write failed", zap.Error(err))
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
