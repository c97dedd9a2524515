package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/search"
)

const (
	SortByVotes      = "votes"
	FilterUnanswered = "unanswered"
)

type SearchRequest struct {
	Text   string
	SortBy string
	Filter string
	Cursor string
	Viewer *uuid.UUID
}

type FeedService interface {
	Home(ctx context.Context, cursor string, viewer *uuid.UUID) (*model.FeedPage, error)
	ByAuthor(ctx context.Context, authorID uuid.UUID, cursor string, viewer *uuid.UUID) (*model.FeedPage, error)
	Upvoted(ctx context.Context, userID uuid.UUID, cursor string) (*model.FeedPage, error)
	Search(ctx context.Context, req SearchRequest) (*model.FeedPage, error)
}

type feedService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	search   *search.Service
}

func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, searchService *search.Service) FeedService {
	return &feedService{postRepo: postRepo, userRepo: userRepo, search: searchService}
}

func (s *feedService) Home(ctx context.Context, cursor string, viewer *uuid.UUID) (*model.FeedPage, error) {
	return s.page(ctx, repository.FeedQuery{Sort: repository.SortNewest, Viewer: viewer}, cursor)
}

func (s *feedService) ByAuthor(ctx context.Context, authorID uuid.UUID, cursor string, viewer *uuid.UUID) (*model.FeedPage, error) {
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	return s.page(ctx, repository.FeedQuery{AuthorID: &authorID, Sort: repository.SortNewest, Viewer: viewer}, cursor)
}

func (s *feedService) Upvoted(ctx context.Context, userID uuid.UUID, cursor string) (*model.FeedPage, error) {
	return s.page(ctx, repository.FeedQuery{UpvotedBy: &userID, Sort: repository.SortNewest, Viewer: &userID}, cursor)
}

func (s *feedService) Search(ctx context.Context, req SearchRequest) (*model.FeedPage, error) {
	text := strings.TrimSpace(req.Text)

	q := repository.FeedQuery{
		Text:           text,
		UnansweredOnly: req.Filter == FilterUnanswered,
		Viewer:         req.Viewer,
	}
	switch {
	case req.SortBy == SortByVotes:
		q.Sort = repository.SortVotes
	case text != "":
		q.Sort = repository.SortRelevance
	default:
		q.Sort = repository.SortNewest
	}

	if q.Sort == repository.SortRelevance {
		if hits, ok := s.search.Rank(search.Query{Text: text, UnansweredOnly: q.UnansweredOnly, Limit: repository.PageSize}); ok {
			return s.hydrate(ctx, hits, q)
		}
	}

	return s.page(ctx, q, req.Cursor)
}

func (s *feedService) page(ctx context.Context, q repository.FeedQuery, cursor string) (*model.FeedPage, error) {
	after, err := repository.ParseCursor(cursor, q.Sort)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}
	q.After = after
	q.Limit = repository.PageSize

	posts, err := s.postRepo.ListSummaries(ctx, q)
	if err != nil {
		return nil, err
	}

	return &model.FeedPage{Posts: posts, NextCursor: repository.NextCursor(posts, q)}, nil
}

// hydrate loads summaries for ranked ids and returns them in rank order.
// Ids that no longer resolve to a post are dropped.
func (s *feedService) hydrate(ctx context.Context, hits []search.Hit, q repository.FeedQuery) (*model.FeedPage, error) {
	page := &model.FeedPage{Posts: []model.PostSummary{}}
	if len(hits) == 0 {
		return page, nil
	}

	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	posts, err := s.postRepo.ListSummaries(ctx, repository.FeedQuery{
		IDs:            ids,
		UnansweredOnly: q.UnansweredOnly,
		Viewer:         q.Viewer,
		Limit:          len(ids),
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.PostSummary, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	for _, h := range hits {
		p, ok := byID[h.ID]
		if !ok {
			continue
		}
		score := h.Score
		p.Score = &score
		page.Posts = append(page.Posts, p)
	}
	return page, nil
}
