package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID         uuid.UUID `db:"id" json:"_id"`
	AuthorID   uuid.UUID `db:"author_id" json:"authorId"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	IsAnswered bool      `db:"is_answered" json:"isAnswered"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// PostDetail is a single post with its author, replies and upvote set.
type PostDetail struct {
	ID          uuid.UUID     `json:"_id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Author      AuthorSummary `json:"author"`
	Replies     []ReplyView   `json:"replies"`
	Upvotes     []uuid.UUID   `json:"upvotes"`
	UpvoteCount int           `json:"upvoteCount"`
	ReplyCount  int           `json:"replyCount"`
	IsAnswered  bool          `json:"isAnswered"`
	UserUpvoted bool          `json:"userUpvoted"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type UpvoteResult struct {
	Upvotes     int  `json:"upvotes"`
	UserUpvoted bool `json:"userUpvoted"`
}

type AnswerResult struct {
	ID         uuid.UUID `json:"_id"`
	IsAnswered bool      `json:"isAnswered"`
}
