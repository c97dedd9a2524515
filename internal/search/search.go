// Package search ranks posts for free-text queries through Meilisearch and
// keeps the index in step with post mutations.
package search

import (
	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

const defaultLimit = 10

type Query struct {
	Text           string
	UnansweredOnly bool
	Limit          int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	return q.Limit
}

// Hit is a ranked post id. Hits are returned best first.
type Hit struct {
	ID    uuid.UUID
	Score float64
}

type Ranker interface {
	Rank(q Query) ([]Hit, error)
	Healthy() bool
}

type Indexer interface {
	IndexPost(p PostRecord) error
	DeletePost(id string) error
	// ReplaceAll drops every indexed post and indexes ps instead.
	ReplaceAll(ps []PostRecord) error
}

// PostRecord is the data we index for a post.
type PostRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	IsAnswered bool   `json:"isAnswered"`
	CreatedAt  int64  `json:"createdAt"`
}

func RecordFromPost(p *model.Post) PostRecord {
	return PostRecord{
		ID:         p.ID.String(),
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID.String(),
		IsAnswered: p.IsAnswered,
		CreatedAt:  p.CreatedAt.Unix(),
	}
}
