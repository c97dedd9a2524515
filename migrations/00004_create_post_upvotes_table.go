package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePostUpvotesTable, downCreatePostUpvotesTable)
}

func upCreatePostUpvotesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE post_upvotes (
	  post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  PRIMARY KEY (post_id, user_id)
	);
	CREATE INDEX idx_post_upvotes_user_id ON post_upvotes(user_id);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreatePostUpvotesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS post_upvotes;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
