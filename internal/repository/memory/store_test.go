package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
)

// newTestStore creates a store with one author and n posts, oldest first.
func newTestStore(t *testing.T, n int) (*Store, *model.User, []*model.Post) {
	store := New()
	ctx := context.Background()

	author := &model.User{GoogleID: "g-author", DisplayName: "Author", Email: "author@example.com"}
	require.NoError(t, store.Users().Create(ctx, author))

	posts := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &model.Post{AuthorID: author.ID, Title: fmt.Sprintf("Question %d", i), Content: "content"}
		require.NoError(t, store.Posts().Create(ctx, p))
		posts = append(posts, p)
	}
	return store, author, posts
}

func TestStore_UsersUnique(t *testing.T) {
	store, _, _ := newTestStore(t, 0)
	err := store.Users().Create(context.Background(), &model.User{GoogleID: "g-author", Email: "other@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestStore_SetRoleOnce(t *testing.T) {
	store, author, _ := newTestStore(t, 0)
	ctx := context.Background()

	changed, err := store.Users().SetRole(ctx, author.ID, model.RoleLearner)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Users().SetRole(ctx, author.ID, model.RoleInstructor)
	require.NoError(t, err)
	assert.False(t, changed)

	u, err := store.Users().FindByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLearner, u.Role)
}

func TestStore_PaginationCoversFeedOnce(t *testing.T) {
	store, _, posts := newTestStore(t, 25)
	ctx := context.Background()

	all, err := store.Posts().ListSummaries(ctx, repository.FeedQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 25)
	assert.Equal(t, posts[24].ID, all[0].ID, "newest first")

	var paged []model.PostSummary
	q := repository.FeedQuery{}
	for {
		page, err := store.Posts().ListSummaries(ctx, q)
		require.NoError(t, err)
		paged = append(paged, page...)

		next := repository.NextCursor(page, q)
		if next == nil {
			break
		}
		q.After, err = repository.ParseCursor(*next, q.Sort)
		require.NoError(t, err)
	}

	require.Len(t, paged, len(all))
	for i := range all {
		assert.Equal(t, all[i].ID, paged[i].ID)
	}
}

func TestStore_VotesCursor(t *testing.T) {
	store, _, posts := newTestStore(t, 12)
	ctx := context.Background()

	voters := make([]uuid.UUID, 3)
	for i := range voters {
		voters[i] = uuid.New()
	}
	// posts[0] gets three votes, posts[1] two, posts[2] one.
	for i := 0; i < 3; i++ {
		for _, v := range voters[:3-i] {
			_, _, err := store.Posts().ToggleUpvote(ctx, posts[i].ID, v)
			require.NoError(t, err)
		}
	}

	q := repository.FeedQuery{Sort: repository.SortVotes, Limit: 2}
	first, err := store.Posts().ListSummaries(ctx, q)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, posts[0].ID, first[0].ID)
	assert.Equal(t, posts[1].ID, first[1].ID)

	next := repository.NextCursor(first, q)
	require.NotNil(t, next)
	q.After, err = repository.ParseCursor(*next, repository.SortVotes)
	require.NoError(t, err)

	second, err := store.Posts().ListSummaries(ctx, q)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, posts[2].ID, second[0].ID)
	assert.Equal(t, posts[11].ID, second[1].ID, "zero-vote posts follow newest first")
}

func TestStore_ToggleUpvoteTwiceRestores(t *testing.T) {
	store, _, posts := newTestStore(t, 1)
	ctx := context.Background()
	voter := uuid.New()

	upvoted, count, err := store.Posts().ToggleUpvote(ctx, posts[0].ID, voter)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, 1, count)

	upvoted, count, err = store.Posts().ToggleUpvote(ctx, posts[0].ID, voter)
	require.NoError(t, err)
	assert.False(t, upvoted)
	assert.Equal(t, 0, count)
}

func TestStore_ToggleUpvoteMissingPost(t *testing.T) {
	store, _, _ := newTestStore(t, 0)
	ctx := context.Background()
	missing := uuid.New()

	_, _, err := store.Posts().ToggleUpvote(ctx, missing, uuid.New())
	require.ErrorIs(t, err, repository.ErrPostMissing)

	ids, err := store.Posts().UpvoterIDs(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotContains(t, store.upvotes, missing)
}

func TestStore_ListAllReturnsCopies(t *testing.T) {
	store, _, posts := newTestStore(t, 3)
	ctx := context.Background()

	all, err := store.Posts().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	all[0].Title = "changed"
	got, err := store.Posts().FindByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", got.Title)

	ids := make([]uuid.UUID, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	for _, p := range posts {
		assert.Contains(t, ids, p.ID)
	}
}

func TestStore_SearchAndFilters(t *testing.T) {
	store, author, _ := newTestStore(t, 0)
	ctx := context.Background()

	mk := func(title, content string) *model.Post {
		p := &model.Post{AuthorID: author.ID, Title: title, Content: content}
		require.NoError(t, store.Posts().Create(ctx, p))
		return p
	}
	channels := mk("Buffered channels", "how do channels block")
	mk("Maps", "are maps safe for concurrent use")
	answered := mk("Channels closing", "who closes a channel")
	_, err := store.Posts().MarkAnswered(ctx, answered.ID)
	require.NoError(t, err)

	res, err := store.Posts().ListSummaries(ctx, repository.FeedQuery{Text: "Channels", Sort: repository.SortRelevance})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, channels.ID, res[0].ID, "title and content hits rank first")
	require.NotNil(t, res[0].Score)

	res, err = store.Posts().ListSummaries(ctx, repository.FeedQuery{Text: "channels", UnansweredOnly: true, Sort: repository.SortRelevance})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, channels.ID, res[0].ID)
}

func TestStore_DeleteCascades(t *testing.T) {
	store, author, posts := newTestStore(t, 1)
	ctx := context.Background()

	require.NoError(t, store.Replies().Create(ctx, &model.Reply{PostID: posts[0].ID, AuthorID: author.ID, Content: "a"}))
	_, _, err := store.Posts().ToggleUpvote(ctx, posts[0].ID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, store.Posts().Delete(ctx, posts[0].ID))

	p, err := store.Posts().FindByID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	replies, err := store.Replies().ListByPostID(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, replies)

	err = store.Replies().Create(ctx, &model.Reply{PostID: posts[0].ID, AuthorID: author.ID, Content: "late"})
	assert.ErrorIs(t, err, repository.ErrPostMissing)
}

func TestStore_RepliesNewestFirst(t *testing.T) {
	store, author, posts := newTestStore(t, 1)
	ctx := context.Background()

	for _, c := range []string{"first", "second"} {
		require.NoError(t, store.Replies().Create(ctx, &model.Reply{PostID: posts[0].ID, AuthorID: author.ID, Content: c}))
	}

	replies, err := store.Replies().ListByPostID(ctx, posts[0].ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "second", replies[0].Content)
	assert.Equal(t, "Author", replies[0].Author.DisplayName)
}
