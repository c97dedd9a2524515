package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateRepliesTable, downCreateRepliesTable)
}

func upCreateRepliesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE replies (
	  id UUID PRIMARY KEY,
	  post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	  author_id UUID NOT NULL REFERENCES users(id),
	  content TEXT NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	CREATE INDEX idx_replies_post_id ON replies(post_id, created_at DESC);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateRepliesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS replies;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
