// Package memory is an in-process implementation of the repository interfaces,
// used for local runs without postgres and by the service tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
)

type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*model.User
	posts   map[uuid.UUID]*model.Post
	replies map[uuid.UUID][]*model.Reply          // by post id
	upvotes map[uuid.UUID]map[uuid.UUID]time.Time // post id -> user id -> upvoted at
	tokens  map[string]uuid.UUID                  // device token -> user id
	now     func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*model.User),
		posts:   make(map[uuid.UUID]*model.Post),
		replies: make(map[uuid.UUID][]*model.Reply),
		upvotes: make(map[uuid.UUID]map[uuid.UUID]time.Time),
		tokens:  make(map[string]uuid.UUID),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Posts() repository.PostRepository               { return postRepo{s} }
func (s *Store) Replies() repository.ReplyRepository            { return replyRepo{s} }
func (s *Store) DeviceTokens() repository.DeviceTokenRepository { return tokenRepo{s} }

// === Users ===

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.GoogleID == user.GoogleID || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateUser
		}
	}

	id, err := repository.NewID()
	if err != nil {
		return err
	}
	now := s.now()
	user.ID = id
	user.Role = model.RoleUnset
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	s.users[id] = &stored
	return nil
}

func (r userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r userRepo) SetRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.Role != model.RoleUnset {
		return false, nil
	}
	u.Role = role
	u.UpdatedAt = r.s.now()
	return true, nil
}

func (r userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, displayName *string, avatarURL *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if avatarURL != nil {
		avatar := *avatarURL
		u.AvatarURL = &avatar
	}
	u.UpdatedAt = r.s.now()
	return nil
}

// === Posts ===

type postRepo struct{ s *Store }

func (r postRepo) Create(ctx context.Context, post *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := repository.NewID()
	if err != nil {
		return err
	}
	now := s.now()
	post.ID = id
	post.IsAnswered = false
	post.CreatedAt, post.UpdatedAt = now, now

	stored := *post
	s.posts[id] = &stored
	return nil
}

func (r postRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.replies, id)
	delete(r.s.upvotes, id)
	delete(r.s.posts, id)
	return nil
}

func (r postRepo) MarkAnswered(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.IsAnswered {
		return false, nil
	}
	p.IsAnswered = true
	p.UpdatedAt = r.s.now()
	return true, nil
}

func (r postRepo) ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[postID]; !ok {
		return false, 0, repository.ErrPostMissing
	}
	set, ok := r.s.upvotes[postID]
	if !ok {
		set = make(map[uuid.UUID]time.Time)
		r.s.upvotes[postID] = set
	}

	if _, voted := set[userID]; voted {
		delete(set, userID)
		return false, len(set), nil
	}
	set[userID] = r.s.now()
	return true, len(set), nil
}

func (r postRepo) ListAll(ctx context.Context) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]model.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return bytes.Compare(posts[i].ID[:], posts[j].ID[:]) < 0
	})
	return posts, nil
}

func (r postRepo) UpvoterIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	set := r.s.upvotes[postID]
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := set[ids[i]], set[ids[j]]
		if ti.Equal(tj) {
			return bytes.Compare(ids[i][:], ids[j][:]) < 0
		}
		return ti.Before(tj)
	})
	return ids, nil
}

func (r postRepo) ListSummaries(ctx context.Context, q repository.FeedQuery) ([]model.PostSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var idSet map[uuid.UUID]bool
	if q.IDs != nil {
		idSet = make(map[uuid.UUID]bool, len(q.IDs))
		for _, id := range q.IDs {
			idSet[id] = true
		}
	}
	terms := searchTerms(q.Text)

	var out []model.PostSummary
	for _, p := range r.s.posts {
		if q.AuthorID != nil && p.AuthorID != *q.AuthorID {
			continue
		}
		if q.UpvotedBy != nil {
			if _, ok := r.s.upvotes[p.ID][*q.UpvotedBy]; !ok {
				continue
			}
		}
		if idSet != nil && !idSet[p.ID] {
			continue
		}
		if q.UnansweredOnly && p.IsAnswered {
			continue
		}

		var score *float64
		if len(terms) > 0 {
			rank, ok := relevance(p, terms)
			if !ok {
				continue
			}
			score = &rank
		}

		summary := r.s.summarize(p, q.Viewer)
		summary.Score = score
		if q.After != nil && !after(summary, *q.After, q.Sort) {
			continue
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j], q.Sort) })

	limit := q.Limit
	if limit <= 0 {
		limit = repository.PageSize
	}
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []model.PostSummary{}
	}
	return out, nil
}

// summarize must be called with the read lock held.
func (s *Store) summarize(p *model.Post, viewer *uuid.UUID) model.PostSummary {
	summary := model.PostSummary{
		ID:          p.ID,
		Title:       p.Title,
		IsAnswered:  p.IsAnswered,
		CreatedAt:   p.CreatedAt,
		UpvoteCount: len(s.upvotes[p.ID]),
		ReplyCount:  len(s.replies[p.ID]),
		Author:      s.author(p.AuthorID),
	}
	if viewer != nil {
		_, summary.UserUpvoted = s.upvotes[p.ID][*viewer]
	}
	return summary
}

func (s *Store) author(id uuid.UUID) model.AuthorSummary {
	a := model.AuthorSummary{ID: id}
	if u, ok := s.users[id]; ok {
		a.DisplayName = u.DisplayName
		a.AvatarURL = u.AvatarURL
	}
	return a
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// after reports whether p sorts strictly after the cursor.
func after(p model.PostSummary, c repository.Cursor, sortKey repository.SortKey) bool {
	switch sortKey {
	case repository.SortVotes:
		if p.UpvoteCount != c.Votes {
			return p.UpvoteCount < c.Votes
		}
		return compareIDs(p.ID, c.ID) < 0
	case repository.SortNewest:
		return compareIDs(p.ID, c.ID) < 0
	}
	return true
}

func less(a, b model.PostSummary, sortKey repository.SortKey) bool {
	switch sortKey {
	case repository.SortVotes:
		if a.UpvoteCount != b.UpvoteCount {
			return a.UpvoteCount > b.UpvoteCount
		}
	case repository.SortRelevance:
		sa, sb := scoreOf(a), scoreOf(b)
		if sa != sb {
			return sa > sb
		}
	}
	return compareIDs(a.ID, b.ID) > 0
}

func scoreOf(p model.PostSummary) float64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

func searchTerms(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// relevance requires every term to appear in the title or content. Title hits
// weigh more than content hits.
func relevance(p *model.Post, terms []string) (float64, bool) {
	title := strings.ToLower(p.Title)
	content := strings.ToLower(p.Content)

	var rank float64
	for _, term := range terms {
		inTitle := strings.Count(title, term)
		inContent := strings.Count(content, term)
		if inTitle == 0 && inContent == 0 {
			return 0, false
		}
		rank += float64(inTitle)*1.0 + float64(inContent)*0.4
	}
	return rank, true
}

// === Replies ===

type replyRepo struct{ s *Store }

func (r replyRepo) Create(ctx context.Context, reply *model.Reply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[reply.PostID]; !ok {
		return repository.ErrPostMissing
	}

	id, err := repository.NewID()
	if err != nil {
		return err
	}
	reply.ID = id
	reply.CreatedAt = r.s.now()

	stored := *reply
	r.s.replies[reply.PostID] = append(r.s.replies[reply.PostID], &stored)
	return nil
}

func (r replyRepo) ListByPostID(ctx context.Context, postID uuid.UUID) ([]model.ReplyView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.replies[postID]
	views := make([]model.ReplyView, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		rp := stored[i]
		views = append(views, model.ReplyView{
			ID:        rp.ID,
			PostID:    rp.PostID,
			Content:   rp.Content,
			CreatedAt: rp.CreatedAt,
			Author:    r.s.author(rp.AuthorID),
		})
	}
	return views, nil
}

// === Device tokens ===

type tokenRepo struct{ s *Store }

func (r tokenRepo) Register(ctx context.Context, userID uuid.UUID, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokens[token] = userID
	return nil
}

func (r tokenRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var tokens []string
	for token, owner := range r.s.tokens {
		if owner == userID {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}
