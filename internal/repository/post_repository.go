package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// Delete removes the post together with its replies and upvotes.
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkAnswered flips is_answered to true. It reports false when the post was already answered.
	MarkAnswered(ctx context.Context, id uuid.UUID) (bool, error)
	// ToggleUpvote flips the (post, user) upvote and returns the new membership and count.
	ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, int, error)
	UpvoterIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	ListSummaries(ctx context.Context, q FeedQuery) ([]model.PostSummary, error)
	// ListAll returns every post without author or vote data. Used to rebuild the search index.
	ListAll(ctx context.Context) ([]model.Post, error)
}

type postgresPostRepository struct {
	db *sqlx.DB
}

func NewPostgresPostRepository(db *sqlx.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

func (r *postgresPostRepository) Create(ctx context.Context, post *model.Post) error {
	id, err := NewID()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (id, author_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING is_answered, created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query, id, post.AuthorID, post.Title, post.Content).
		Scan(&post.IsAnswered, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	return nil
}

func (r *postgresPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	query := `SELECT id, author_id, title, content, is_answered, created_at, updated_at FROM posts WHERE id = $1`
	err := r.db.GetContext(ctx, &post, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &post, nil
}

func (r *postgresPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete replies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_upvotes WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete upvotes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return tx.Commit()
}

func (r *postgresPostRepository) MarkAnswered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE posts SET is_answered = TRUE, updated_at = now() WHERE id = $1 AND is_answered = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (r *postgresPostRepository) ToggleUpvote(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM post_upvotes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("remove upvote: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	upvoted := false
	if removed == 0 {
		_, err := tx.ExecContext(ctx, `INSERT INTO post_upvotes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return false, 0, ErrPostMissing
			}
			return false, 0, fmt.Errorf("add upvote: %w", err)
		}
		upvoted = true
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM post_upvotes WHERE post_id = $1`, postID); err != nil {
		return false, 0, err
	}

	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	return upvoted, count, nil
}

func (r *postgresPostRepository) ListAll(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	query := `SELECT id, author_id, title, content, is_answered, created_at, updated_at FROM posts ORDER BY id`
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postgresPostRepository) UpvoterIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	query := `SELECT user_id FROM post_upvotes WHERE post_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &ids, query, postID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postgresPostRepository) ListSummaries(ctx context.Context, q FeedQuery) ([]model.PostSummary, error) {
	query, args := q.SQL()

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.PostSummary, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toModel())
	}
	return posts, nil
}
