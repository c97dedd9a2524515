package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

const reindexTimeout = 2 * time.Minute

type Engine interface {
	Ranker
	Indexer
}

// PostSource lists every stored post for a full reindex.
type PostSource interface {
	ListAll(ctx context.Context) ([]model.Post, error)
}

// Service fronts an optional search engine. Rank reports false, so callers
// fall back to store full-text search, while the engine is missing, unhealthy
// or stale. The index goes stale when a write is missed or the engine
// recovers from an outage, and a background reindex from the source brings
// it back.
type Service struct {
	engine     Engine
	source     PostSource
	stale      atomic.Bool
	generation atomic.Uint64
	reindexing atomic.Bool
}

func NewService(m *Meili, source PostSource) *Service {
	if m == nil {
		return &Service{}
	}
	s := NewServiceWithEngine(m, source)
	m.OnRecover(s.recovered)
	return s
}

// NewServiceWithEngine starts stale when a source is given, so the first
// ranked query triggers a full reindex.
func NewServiceWithEngine(e Engine, source PostSource) *Service {
	s := &Service{engine: e, source: source}
	s.stale.Store(source != nil)
	return s
}

func (s *Service) available() bool {
	return s != nil && s.engine != nil && s.engine.Healthy()
}

func (s *Service) markStale() {
	s.generation.Add(1)
	s.stale.Store(true)
}

// recovered rebuilds the index after the engine comes back from an outage.
func (s *Service) recovered() {
	s.markStale()
	s.reindexAsync()
}

func (s *Service) Rank(q Query) ([]Hit, bool) {
	if !s.available() {
		if s != nil {
			s.markStale()
		}
		return nil, false
	}
	if s.stale.Load() {
		s.reindexAsync()
		return nil, false
	}

	hits, err := s.engine.Rank(q)
	if err != nil {
		slog.Warn("search engine error, falling back to store", "error", err)
		s.markStale()
		return nil, false
	}
	return hits, true
}

// Reindex replaces the engine's documents with every post from the source.
// The index only counts as fresh if no write was missed while it ran.
func (s *Service) Reindex(ctx context.Context) error {
	if !s.available() {
		return nil
	}
	gen := s.generation.Load()

	var records []PostRecord
	if s.source != nil {
		posts, err := s.source.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("reindex load posts: %w", err)
		}
		records = make([]PostRecord, len(posts))
		for i := range posts {
			records[i] = RecordFromPost(&posts[i])
		}
		if err := s.engine.ReplaceAll(records); err != nil {
			return fmt.Errorf("reindex posts: %w", err)
		}
	}

	if s.generation.Load() == gen {
		s.stale.Store(false)
	}
	slog.Info("search index rebuilt", "posts", len(records))
	return nil
}

func (s *Service) reindexAsync() {
	if !s.reindexing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.reindexing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
		defer cancel()
		if err := s.Reindex(ctx); err != nil {
			slog.Error("search reindex failed", "error", err)
		}
	}()
}

// IndexPost indexes a post (fire-and-forget).
func (s *Service) IndexPost(p *model.Post) {
	if !s.available() {
		if s != nil && s.engine != nil {
			s.markStale()
		}
		return
	}
	rec := RecordFromPost(p)
	go func() {
		if err := s.engine.IndexPost(rec); err != nil {
			slog.Warn("search index failed", "post_id", rec.ID, "error", err)
			s.markStale()
		}
	}()
}

// DeletePost removes a post from the index (fire-and-forget).
func (s *Service) DeletePost(id uuid.UUID) {
	if !s.available() {
		if s != nil && s.engine != nil {
			s.markStale()
		}
		return
	}
	go func() {
		if err := s.engine.DeletePost(id.String()); err != nil {
			slog.Warn("search delete failed", "post_id", id, "error", err)
			s.markStale()
		}
	}()
}
