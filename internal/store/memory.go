package store

import (
	"context"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vzaikin/claimlens/internal/model"
)

// In-process implementations of the store interfaces, backed by go-cache
// with no expiration. They are the reference stores for tests and
// single-node runs; database-backed stores can replace them behind the same
// interfaces. All methods copy records on the way in and out so callers
// never share memory with the store.

// MemoryVideos implements VideoStore.
type MemoryVideos struct {
	cache *gocache.Cache
}

// NewMemoryVideos creates an empty in-memory video store.
func NewMemoryVideos() *MemoryVideos {
	return &MemoryVideos{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryVideos) Upsert(_ context.Context, v *model.Video) error {
	cp := *v
	s.cache.Set(v.ID, &cp, gocache.NoExpiration)
	return nil
}

func (s *MemoryVideos) FindByID(_ context.Context, id string) (*model.Video, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, &StorageError{Op: "find video", Err: ErrNotFound}
	}
	cp := *val.(*model.Video)
	return &cp, nil
}

// MemoryAnalyses implements AnalysisStore.
type MemoryAnalyses struct {
	cache *gocache.Cache

	mu      sync.Mutex
	byVideo map[string][]string // videoID -> analysis IDs, creation order
}

// NewMemoryAnalyses creates an empty in-memory analysis store.
func NewMemoryAnalyses() *MemoryAnalyses {
	return &MemoryAnalyses{
		cache:   gocache.New(gocache.NoExpiration, 0),
		byVideo: make(map[string][]string),
	}
}

func (s *MemoryAnalyses) Create(_ context.Context, a *model.Analysis) error {
	cp := *a
	s.cache.Set(a.ID, &cp, gocache.NoExpiration)

	s.mu.Lock()
	s.byVideo[a.VideoID] = append(s.byVideo[a.VideoID], a.ID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryAnalyses) FindByID(_ context.Context, id string) (*model.Analysis, error) {
	val, found := s.cache.Get(id)
	if !found {
		return nil, &StorageError{Op: "find analysis", Err: ErrNotFound}
	}
	cp := *val.(*model.Analysis)
	return &cp, nil
}

func (s *MemoryAnalyses) FindLatestByVideo(ctx context.Context, videoID string) (*model.Analysis, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.byVideo[videoID]...)
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil, &StorageError{Op: "find latest analysis", Err: ErrNotFound}
	}
	return s.FindByID(ctx, ids[len(ids)-1])
}

func (s *MemoryAnalyses) FindCompletedByVideo(ctx context.Context, videoID string) (*model.Analysis, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.byVideo[videoID]...)
	s.mu.Unlock()

	for i := len(ids) - 1; i >= 0; i-- {
		a, err := s.FindByID(ctx, ids[i])
		if err != nil {
			continue
		}
		if a.Status == model.StatusComplete {
			return a, nil
		}
	}
	return nil, &StorageError{Op: "find completed analysis", Err: ErrNotFound}
}

func (s *MemoryAnalyses) Update(_ context.Context, a *model.Analysis) error {
	if _, found := s.cache.Get(a.ID); !found {
		return &StorageError{Op: "update analysis", Err: ErrNotFound}
	}
	cp := *a
	s.cache.Set(a.ID, &cp, gocache.NoExpiration)
	return nil
}

// MemoryClaims implements ClaimStore.
type MemoryClaims struct {
	cache *gocache.Cache

	mu    sync.Mutex
	byRun map[string][]string // analysisID -> claim IDs, creation order
}

// NewMemoryClaims creates an empty in-memory claim store.
func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{
		cache: gocache.New(gocache.NoExpiration, 0),
		byRun: make(map[string][]string),
	}
}

func (s *MemoryClaims) Create(_ context.Context, c *model.Claim) error {
	cp := *c
	s.cache.Set(c.ID, &cp, gocache.NoExpiration)

	s.mu.Lock()
	s.byRun[c.AnalysisID] = append(s.byRun[c.AnalysisID], c.ID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryClaims) FindByAnalysis(_ context.Context, analysisID string) ([]*model.Claim, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.byRun[analysisID]...)
	s.mu.Unlock()

	claims := make([]*model.Claim, 0, len(ids))
	for _, id := range ids {
		if val, found := s.cache.Get(id); found {
			cp := *val.(*model.Claim)
			claims = append(claims, &cp)
		}
	}
	sort.SliceStable(claims, func(i, j int) bool { return claims[i].Timestamp < claims[j].Timestamp })
	return claims, nil
}

func (s *MemoryClaims) UpdateByID(_ context.Context, c *model.Claim) error {
	if _, found := s.cache.Get(c.ID); !found {
		return &StorageError{Op: "update claim", Err: ErrNotFound}
	}
	cp := *c
	s.cache.Set(c.ID, &cp, gocache.NoExpiration)
	return nil
}

func (s *MemoryClaims) DeleteByAnalysis(_ context.Context, analysisID string) error {
	s.mu.Lock()
	ids := s.byRun[analysisID]
	delete(s.byRun, analysisID)
	s.mu.Unlock()

	for _, id := range ids {
		s.cache.Delete(id)
	}
	return nil
}

// MemoryTranscriptions implements TranscriptionStore, keyed by analysis.
type MemoryTranscriptions struct {
	cache *gocache.Cache
}

// NewMemoryTranscriptions creates an empty in-memory transcription store.
func NewMemoryTranscriptions() *MemoryTranscriptions {
	return &MemoryTranscriptions{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryTranscriptions) Create(_ context.Context, t *model.Transcription) error {
	cp := *t
	s.cache.Set(t.AnalysisID, &cp, gocache.NoExpiration)
	return nil
}

func (s *MemoryTranscriptions) FindByAnalysis(_ context.Context, analysisID string) (*model.Transcription, error) {
	val, found := s.cache.Get(analysisID)
	if !found {
		return nil, &StorageError{Op: "find transcription", Err: ErrNotFound}
	}
	cp := *val.(*model.Transcription)
	return &cp, nil
}
