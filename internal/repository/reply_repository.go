package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

// ErrPostMissing is returned when a reply targets a post that no longer exists.
var ErrPostMissing = errors.New("post does not exist")

type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	// ListByPostID returns the replies of a post with their authors, newest first.
	ListByPostID(ctx context.Context, postID uuid.UUID) ([]model.ReplyView, error)
}

type postgresReplyRepository struct {
	db *sqlx.DB
}

func NewPostgresReplyRepository(db *sqlx.DB) ReplyRepository {
	return &postgresReplyRepository{db: db}
}

func (r *postgresReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	id, err := NewID()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO replies (id, post_id, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, id, reply.PostID, reply.AuthorID, reply.Content).Scan(&reply.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrPostMissing
		}
		return fmt.Errorf("insert reply: %w", err)
	}

	reply.ID = id
	return nil
}

type replyRow struct {
	ID                uuid.UUID `db:"id"`
	PostID            uuid.UUID `db:"post_id"`
	Content           string    `db:"content"`
	CreatedAt         time.Time `db:"created_at"`
	AuthorID          uuid.UUID `db:"author_id"`
	AuthorDisplayName string    `db:"author_display_name"`
	AuthorAvatarURL   *string   `db:"author_avatar_url"`
}

func (r *postgresReplyRepository) ListByPostID(ctx context.Context, postID uuid.UUID) ([]model.ReplyView, error) {
	var rows []replyRow
	query := `
		SELECT r.id, r.post_id, r.content, r.created_at,
			u.id AS author_id, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url
		FROM replies r
		JOIN users u ON u.id = r.author_id
		WHERE r.post_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, err
	}

	replies := make([]model.ReplyView, 0, len(rows))
	for _, row := range rows {
		replies = append(replies, model.ReplyView{
			ID:        row.ID,
			PostID:    row.PostID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			Author: model.AuthorSummary{
				ID:          row.AuthorID,
				DisplayName: row.AuthorDisplayName,
				AvatarURL:   row.AuthorAvatarURL,
			},
		})
	}

	return replies, nil
}
