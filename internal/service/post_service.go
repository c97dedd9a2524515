package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/events"
	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/search"
)

type PostService interface {
	CreatePost(ctx context.Context, actor model.Actor, title, content string) (*model.PostDetail, error)
	GetPost(ctx context.Context, postID uuid.UUID, viewer *uuid.UUID) (*model.PostDetail, error)
	DeletePost(ctx context.Context, actor model.Actor, postID uuid.UUID) error
	AddReply(ctx context.Context, actor model.Actor, postID uuid.UUID, content string) (*model.ReplyView, error)
	ToggleUpvote(ctx context.Context, actor model.Actor, postID uuid.UUID) (*model.UpvoteResult, error)
	MarkAnswered(ctx context.Context, actor model.Actor, postID uuid.UUID) (*model.AnswerResult, error)
}

type postService struct {
	postRepo  repository.PostRepository
	replyRepo repository.ReplyRepository
	userRepo  repository.UserRepository
	publisher events.EventPublisher
	search    *search.Service
}

func NewPostService(
	postRepo repository.PostRepository,
	replyRepo repository.ReplyRepository,
	userRepo repository.UserRepository,
	publisher events.EventPublisher,
	searchService *search.Service,
) PostService {
	return &postService{
		postRepo:  postRepo,
		replyRepo: replyRepo,
		userRepo:  userRepo,
		publisher: publisher,
		search:    searchService,
	}
}

func (s *postService) CreatePost(ctx context.Context, actor model.Actor, title, content string) (*model.PostDetail, error) {
	if actor.Role == model.RoleUnset {
		return nil, ErrRoleNotSet
	}

	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrEmptyPost
	}

	post := &model.Post{AuthorID: actor.UserID, Title: title, Content: content}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.search.IndexPost(post)

	author, err := s.authorSummary(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	return &model.PostDetail{
		ID:         post.ID,
		Title:      post.Title,
		Content:    post.Content,
		Author:     author,
		Replies:    []model.ReplyView{},
		Upvotes:    []uuid.UUID{},
		IsAnswered: post.IsAnswered,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}, nil
}

func (s *postService) GetPost(ctx context.Context, postID uuid.UUID, viewer *uuid.UUID) (*model.PostDetail, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	author, err := s.authorSummary(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	replies, err := s.replyRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	upvotes, err := s.postRepo.UpvoterIDs(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &model.PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Author:      author,
		Replies:     replies,
		Upvotes:     upvotes,
		UpvoteCount: len(upvotes),
		ReplyCount:  len(replies),
		IsAnswered:  post.IsAnswered,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
	if viewer != nil {
		for _, id := range upvotes {
			if id == *viewer {
				detail.UserUpvoted = true
				break
			}
		}
	}
	return detail, nil
}

func (s *postService) DeletePost(ctx context.Context, actor model.Actor, postID uuid.UUID) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.UserID {
		return ErrNotAuthor
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	s.search.DeletePost(postID)
	return nil
}

func (s *postService) AddReply(ctx context.Context, actor model.Actor, postID uuid.UUID, content string) (*model.ReplyView, error) {
	if actor.Role == model.RoleUnset {
		return nil, ErrRoleNotSet
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyReply
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	reply := &model.Reply{PostID: postID, AuthorID: actor.UserID, Content: content}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrPostMissing) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	author, err := s.authorSummary(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	go s.publisher.PublishPostReplied(post, reply, author.DisplayName)

	return &model.ReplyView{
		ID:        reply.ID,
		PostID:    reply.PostID,
		Content:   reply.Content,
		Author:    author,
		CreatedAt: reply.CreatedAt,
	}, nil
}

func (s *postService) ToggleUpvote(ctx context.Context, actor model.Actor, postID uuid.UUID) (*model.UpvoteResult, error) {
	if actor.Role == model.RoleUnset {
		return nil, ErrRoleNotSet
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID == actor.UserID {
		return nil, ErrSelfUpvote
	}

	upvoted, count, err := s.postRepo.ToggleUpvote(ctx, postID, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrPostMissing) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return &model.UpvoteResult{Upvotes: count, UserUpvoted: upvoted}, nil
}

func (s *postService) MarkAnswered(ctx context.Context, actor model.Actor, postID uuid.UUID) (*model.AnswerResult, error) {
	if actor.Role == model.RoleUnset {
		return nil, ErrRoleNotSet
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID && actor.Role != model.RoleInstructor {
		return nil, ErrCannotMarkAnswered
	}

	changed, err := s.postRepo.MarkAnswered(ctx, postID)
	if err != nil {
		return nil, err
	}

	if changed {
		post.IsAnswered = true
		s.search.IndexPost(post)
		go s.publisher.PublishPostAnswered(post, actor.UserID)
	}

	return &model.AnswerResult{ID: post.ID, IsAnswered: true}, nil
}

func (s *postService) findPost(ctx context.Context, postID uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) authorSummary(ctx context.Context, userID uuid.UUID) (model.AuthorSummary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return model.AuthorSummary{}, err
	}
	if user == nil {
		return model.AuthorSummary{ID: userID}, nil
	}
	return model.AuthorSummary{ID: user.ID, DisplayName: user.DisplayName, AvatarURL: user.AvatarURL}, nil
}
