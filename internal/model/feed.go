package model

import (
	"time"

	"github.com/google/uuid"
)

// PostSummary is the projection used by every feed and by search.
type PostSummary struct {
	ID          uuid.UUID     `json:"_id"`
	Title       string        `json:"title"`
	IsAnswered  bool          `json:"isAnswered"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpvoteCount int           `json:"upvoteCount"`
	ReplyCount  int           `json:"replyCount"`
	Author      AuthorSummary `json:"author"`
	UserUpvoted bool          `json:"userUpvoted"`
	Score       *float64      `json:"score,omitempty"`
}

type FeedPage struct {
	Posts      []PostSummary `json:"posts"`
	NextCursor *string       `json:"nextCursor"`
}
