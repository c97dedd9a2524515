package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	repo "github.com/AbhishekX2004/LearnatoForum/internal/repository"
)

func TestPostgresPostRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	author := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts (id, author_id, title, content) VALUES ($1, $2, $3, $4) RETURNING is_answered, created_at, updated_at`)).
		WithArgs(sqlmock.AnyArg(), author, "Q1", "body").
		WillReturnRows(sqlmock.NewRows([]string{"is_answered", "created_at", "updated_at"}).AddRow(false, now, now))

	p := &model.Post{AuthorID: author, Title: "Q1", Content: "body"}
	require.NoError(t, r.Create(context.Background(), p))
	require.NotEqual(t, uuid.Nil, p.ID)
	require.False(t, p.IsAnswered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_Delete_RemovesRepliesAndUpvotesFirst(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM replies WHERE post_id = $1`)).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_upvotes WHERE post_id = $1`)).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = $1`)).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_Delete_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM replies`)).WithArgs(id).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	require.Error(t, r.Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_ToggleUpvote_Adds(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	postID, userID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_upvotes WHERE post_id = $1 AND user_id = $2`)).
		WithArgs(postID, userID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO post_upvotes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`)).
		WithArgs(postID, userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM post_upvotes WHERE post_id = $1`)).
		WithArgs(postID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectCommit()

	upvoted, count, err := r.ToggleUpvote(context.Background(), postID, userID)
	require.NoError(t, err)
	require.True(t, upvoted)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_ToggleUpvote_Removes(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	postID, userID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_upvotes WHERE post_id = $1 AND user_id = $2`)).
		WithArgs(postID, userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM post_upvotes`)).
		WithArgs(postID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	upvoted, count, err := r.ToggleUpvote(context.Background(), postID, userID)
	require.NoError(t, err)
	require.False(t, upvoted)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_MarkAnswered_AlreadyAnswered(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE posts SET is_answered = TRUE, updated_at = now() WHERE id = $1 AND is_answered = FALSE`)).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := r.MarkAnswered(context.Background(), id)
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_ListSummaries(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	postID, authorID := uuid.New(), uuid.New()
	now := time.Now()

	cols := []string{"id", "title", "is_answered", "created_at", "author_id", "author_display_name", "author_avatar_url",
		"upvote_count", "reply_count", "user_upvoted", "score"}
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY feed.id DESC LIMIT $1`)).
		WithArgs(repo.PageSize).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(postID.String(), "Q1", false, now, authorID.String(), "Ada", nil, 0, 0, false, nil))

	posts, err := r.ListSummaries(context.Background(), repo.FeedQuery{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, postID, posts[0].ID)
	require.Equal(t, "Ada", posts[0].Author.DisplayName)
	require.Zero(t, posts[0].UpvoteCount)
	require.Nil(t, posts[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_ToggleUpvote_MissingPost(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	postID, userID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM post_upvotes WHERE post_id = $1 AND user_id = $2`)).
		WithArgs(postID, userID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO post_upvotes (post_id, user_id)`)).
		WithArgs(postID, userID).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, _, err := r.ToggleUpvote(context.Background(), postID, userID)
	require.ErrorIs(t, err, repo.ErrPostMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPostRepository_ListAll(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresPostRepository(db)
	now := time.Now()
	a, b := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{"id", "author_id", "title", "content", "is_answered", "created_at", "updated_at"}).
		AddRow(a, uuid.New(), "Goroutine leaks", "how do I find them", false, now, now).
		AddRow(b, uuid.New(), "Channels", "buffered or not", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, author_id, title, content, is_answered, created_at, updated_at FROM posts ORDER BY id`)).
		WillReturnRows(rows)

	posts, err := r.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, a, posts[0].ID)
	require.Equal(t, "Goroutine leaks", posts[0].Title)
	require.True(t, posts[1].IsAnswered)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReplyRepository_Create_MissingPost(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresReplyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO replies`)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := r.Create(context.Background(), &model.Reply{PostID: uuid.New(), AuthorID: uuid.New(), Content: "hi"})
	require.ErrorIs(t, err, repo.ErrPostMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}
