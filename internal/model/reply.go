package model

import (
	"time"

	"github.com/google/uuid"
)

type Reply struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	PostID    uuid.UUID `db:"post_id" json:"post"`
	AuthorID  uuid.UUID `db:"author_id" json:"authorId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ReplyView is a reply populated with its author.
type ReplyView struct {
	ID        uuid.UUID     `json:"_id"`
	PostID    uuid.UUID     `json:"post"`
	Content   string        `json:"content"`
	Author    AuthorSummary `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
}
