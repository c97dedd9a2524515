package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

type fakeEngine struct {
	mu       sync.Mutex
	healthy  atomic.Bool
	hits     []Hit
	err      error
	indexed  []PostRecord
	deleted  []string
	replaced [][]PostRecord
}

func newFakeEngine(healthy bool) *fakeEngine {
	f := &fakeEngine{}
	f.healthy.Store(healthy)
	return f
}

func (f *fakeEngine) Healthy() bool { return f.healthy.Load() }

func (f *fakeEngine) Rank(q Query) ([]Hit, error) { return f.hits, f.err }

func (f *fakeEngine) IndexPost(p PostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p)
	return nil
}

func (f *fakeEngine) DeletePost(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEngine) ReplaceAll(ps []PostRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, ps)
	return nil
}

func (f *fakeEngine) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indexed), len(f.deleted)
}

func (f *fakeEngine) replacements() [][]PostRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]PostRecord(nil), f.replaced...)
}

type staticSource struct {
	posts []model.Post
	err   error
	calls atomic.Int32
	// hook runs inside ListAll, before it returns.
	hook func()
}

func (s *staticSource) ListAll(ctx context.Context) ([]model.Post, error) {
	s.calls.Add(1)
	if s.hook != nil {
		s.hook()
	}
	return s.posts, s.err
}

func TestService_RankFallsBack(t *testing.T) {
	var nilService *Service
	_, ok := nilService.Rank(Query{Text: "x"})
	assert.False(t, ok)

	_, ok = NewService(nil, nil).Rank(Query{Text: "x"})
	assert.False(t, ok)

	_, ok = (&Service{engine: newFakeEngine(false)}).Rank(Query{Text: "x"})
	assert.False(t, ok)

	broken := newFakeEngine(true)
	broken.err = errors.New("boom")
	_, ok = (&Service{engine: broken}).Rank(Query{Text: "x"})
	assert.False(t, ok)
}

func TestService_Rank(t *testing.T) {
	want := []Hit{{ID: uuid.New(), Score: 0.9}, {ID: uuid.New(), Score: 0.4}}
	f := newFakeEngine(true)
	f.hits = want
	s := &Service{engine: f}

	hits, ok := s.Rank(Query{Text: "channels"})
	require.True(t, ok)
	assert.Equal(t, want, hits)
}

func TestService_IndexAndDelete(t *testing.T) {
	f := newFakeEngine(true)
	s := &Service{engine: f}

	p := &model.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "Q", Content: "C", CreatedAt: time.Now()}
	s.IndexPost(p)
	s.DeletePost(p.ID)

	assert.Eventually(t, func() bool {
		indexed, deleted := f.counts()
		return indexed == 1 && deleted == 1
	}, time.Second, 10*time.Millisecond)
	f.mu.Lock()
	assert.Equal(t, p.ID.String(), f.indexed[0].ID)
	f.mu.Unlock()
}

func TestService_StartsStaleAndReindexesOnFirstRank(t *testing.T) {
	f := newFakeEngine(true)
	f.hits = []Hit{{ID: uuid.New(), Score: 1}}
	post := model.Post{ID: uuid.New(), AuthorID: uuid.New(), Title: "Goroutine leaks", Content: "pprof"}
	src := &staticSource{posts: []model.Post{post}}
	s := NewServiceWithEngine(f, src)

	_, ok := s.Rank(Query{Text: "goroutine"})
	assert.False(t, ok, "stale index must not be ranked")

	require.Eventually(t, func() bool {
		_, ok := s.Rank(Query{Text: "goroutine"})
		return ok
	}, time.Second, 10*time.Millisecond)

	replaced := f.replacements()
	require.NotEmpty(t, replaced)
	require.Len(t, replaced[0], 1)
	assert.Equal(t, post.ID.String(), replaced[0][0].ID)
}

func TestService_MissedWriteMarksStale(t *testing.T) {
	f := newFakeEngine(false)
	s := NewServiceWithEngine(f, &staticSource{})
	require.NoError(t, s.Reindex(context.Background()), "reindex is a no-op while the engine is down")
	assert.True(t, s.stale.Load())

	f.healthy.Store(true)
	require.NoError(t, s.Reindex(context.Background()))
	assert.False(t, s.stale.Load())

	f.healthy.Store(false)
	s.IndexPost(&model.Post{ID: uuid.New(), Title: "missed"})
	assert.True(t, s.stale.Load())
	indexed, _ := f.counts()
	assert.Zero(t, indexed)

	f.healthy.Store(true)
	_, ok := s.Rank(Query{Text: "missed"})
	assert.False(t, ok)
}

func TestService_ReindexStaysStaleWhenWriteMissedMeanwhile(t *testing.T) {
	f := newFakeEngine(true)
	var s *Service
	src := &staticSource{}
	src.hook = func() { s.markStale() }
	s = NewServiceWithEngine(f, src)

	require.NoError(t, s.Reindex(context.Background()))
	assert.True(t, s.stale.Load())

	src.hook = nil
	require.NoError(t, s.Reindex(context.Background()))
	assert.False(t, s.stale.Load())
}

func TestService_RecoveryRebuildsIndexWithoutWaitingForQuery(t *testing.T) {
	f := newFakeEngine(true)
	post := model.Post{ID: uuid.New(), Title: "written during outage"}
	src := &staticSource{posts: []model.Post{post}}
	s := NewServiceWithEngine(f, src)
	require.NoError(t, s.Reindex(context.Background()))
	require.Len(t, f.replacements(), 1)

	s.recovered()

	require.Eventually(t, func() bool {
		return len(f.replacements()) == 2 && !s.stale.Load()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, post.ID.String(), f.replacements()[1][0].ID)
}

func TestService_ReindexLoadError(t *testing.T) {
	f := newFakeEngine(true)
	s := NewServiceWithEngine(f, &staticSource{err: errors.New("db down")})

	require.Error(t, s.Reindex(context.Background()))
	assert.True(t, s.stale.Load())
	assert.Empty(t, f.replacements())
}

func TestDecodeHit(t *testing.T) {
	id := uuid.New()
	idJSON, err := json.Marshal(id.String())
	require.NoError(t, err)

	hit, ok := decodeHit(meili.Hit{"id": idJSON, "_rankingScore": json.RawMessage(`0.75`)})
	require.True(t, ok)
	assert.Equal(t, Hit{ID: id, Score: 0.75}, hit)

	_, ok = decodeHit(meili.Hit{"id": idJSON, "_rankingScore": json.RawMessage(`"high"`)})
	assert.False(t, ok, "hit with an unreadable score is skipped")

	_, ok = decodeHit(meili.Hit{"id": json.RawMessage(`"not-a-uuid"`)})
	assert.False(t, ok)
}

func TestQueryLimit(t *testing.T) {
	assert.Equal(t, 10, Query{}.limit())
	assert.Equal(t, 3, Query{Limit: 3}.limit())
}
