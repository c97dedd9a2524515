package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePostsTable, downCreatePostsTable)
}

func upCreatePostsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE posts (
	  id UUID PRIMARY KEY,
	  author_id UUID NOT NULL REFERENCES users(id),
	  title TEXT NOT NULL,
	  content TEXT NOT NULL,
	  is_answered BOOLEAN NOT NULL DEFAULT FALSE,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_posts_author_id ON posts(author_id, id DESC);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreatePostsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS posts;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
