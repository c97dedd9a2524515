package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddSearchVectorToPosts, downAddSearchVectorToPosts)
}

func upAddSearchVectorToPosts(ctx context.Context, tx *sql.Tx) error {
	query := `
	ALTER TABLE posts ADD COLUMN search tsvector
	  GENERATED ALWAYS AS (
	    setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
	    setweight(to_tsvector('english', coalesce(content, '')), 'B')
	  ) STORED;
	CREATE INDEX idx_posts_search ON posts USING GIN (search);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downAddSearchVectorToPosts(ctx context.Context, tx *sql.Tx) error {
	query := `DROP INDEX IF EXISTS idx_posts_search; ALTER TABLE posts DROP COLUMN IF EXISTS search;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
