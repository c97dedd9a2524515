package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	replied  []uuid.UUID
	answered []uuid.UUID
}

func (p *recordingPublisher) PublishPostReplied(post *model.Post, reply *model.Reply, replierName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replied = append(p.replied, post.ID)
	return nil
}

func (p *recordingPublisher) PublishPostAnswered(post *model.Post, answeredBy uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answered = append(p.answered, post.ID)
	return nil
}

func (p *recordingPublisher) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.replied), len(p.answered)
}

type fixture struct {
	store     *memory.Store
	posts     PostService
	feeds     FeedService
	users     UserService
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		posts:     NewPostService(store.Posts(), store.Replies(), store.Users(), pub, nil),
		feeds:     NewFeedService(store.Posts(), store.Users(), nil),
		users:     NewUserService(store.Users(), store.DeviceTokens(), nil),
		publisher: pub,
	}
}

// newActor creates a user with the given role and returns it as an actor.
func (f *fixture) newActor(t *testing.T, name string, role model.Role) model.Actor {
	t.Helper()
	ctx := context.Background()
	u := &model.User{GoogleID: "g-" + name, DisplayName: name, Email: name + "@example.com"}
	require.NoError(t, f.store.Users().Create(ctx, u))
	if role != model.RoleUnset {
		ok, err := f.store.Users().SetRole(ctx, u.ID, role)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return model.Actor{UserID: u.ID, Role: role}
}

func (f *fixture) newPost(t *testing.T, author model.Actor, title string) *model.PostDetail {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), author, title, "content of "+title)
	require.NoError(t, err)
	return p
}
