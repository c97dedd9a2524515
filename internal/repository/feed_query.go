package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

const PageSize = 10

var ErrInvalidCursor = errors.New("invalid cursor")

type SortKey int

const (
	// SortNewest orders by id descending; ids are UUIDv7 so this is creation order.
	SortNewest SortKey = iota
	SortRelevance
	SortVotes
)

// Cursor marks the last item of the previous page. Votes is only
// meaningful under SortVotes.
type Cursor struct {
	ID    uuid.UUID
	Votes int
}

const votesCursorPrefix = "votes:"

// Encode renders the cursor for the given sort. Relevance-ranked pages have no cursor.
func (c Cursor) Encode(sort SortKey) *string {
	var s string
	switch sort {
	case SortNewest:
		s = c.ID.String()
	case SortVotes:
		s = fmt.Sprintf("%s%d:%s", votesCursorPrefix, c.Votes, c.ID)
	default:
		return nil
	}
	return &s
}

// ParseCursor decodes a cursor produced by Encode. An empty string yields nil.
func ParseCursor(raw string, sort SortKey) (*Cursor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || sort == SortRelevance {
		return nil, nil
	}

	if sort == SortVotes {
		rest, ok := strings.CutPrefix(raw, votesCursorPrefix)
		if !ok {
			return nil, ErrInvalidCursor
		}
		countStr, idStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, ErrInvalidCursor
		}
		votes, err := strconv.Atoi(countStr)
		if err != nil || votes < 0 {
			return nil, ErrInvalidCursor
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		return &Cursor{ID: id, Votes: votes}, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: id}, nil
}

// FeedQuery describes one page of post summaries: filter predicates, sort key,
// cursor, limit and the viewer used for the userUpvoted flag.
type FeedQuery struct {
	AuthorID       *uuid.UUID
	UpvotedBy      *uuid.UUID
	IDs            []uuid.UUID
	Text           string
	UnansweredOnly bool
	Sort           SortKey
	After          *Cursor
	Limit          int
	Viewer         *uuid.UUID
}

func (q FeedQuery) limit() int {
	if q.Limit <= 0 {
		return PageSize
	}
	return q.Limit
}

// SQL compiles the query for postgres. Cursor predicates are applied on the
// outer select so they can reference the computed upvote_count.
func (q FeedQuery) SQL() (string, []interface{}) {
	var args []interface{}
	argId := 1
	next := func(v interface{}) string {
		args = append(args, v)
		p := fmt.Sprintf("$%d", argId)
		argId++
		return p
	}

	userUpvoted := "FALSE"
	if q.Viewer != nil {
		userUpvoted = fmt.Sprintf("EXISTS(SELECT 1 FROM post_upvotes v WHERE v.post_id = p.id AND v.user_id = %s)", next(*q.Viewer))
	}

	score := "NULL::float8"
	var where []string
	if text := strings.TrimSpace(q.Text); text != "" {
		tsQuery := fmt.Sprintf("plainto_tsquery('english', %s)", next(text))
		score = fmt.Sprintf("ts_rank(p.search, %s)::float8", tsQuery)
		where = append(where, "p.search @@ "+tsQuery)
	}
	if q.AuthorID != nil {
		where = append(where, "p.author_id = "+next(*q.AuthorID))
	}
	if q.UpvotedBy != nil {
		where = append(where, fmt.Sprintf("EXISTS(SELECT 1 FROM post_upvotes w WHERE w.post_id = p.id AND w.user_id = %s)", next(*q.UpvotedBy)))
	}
	if q.IDs != nil {
		ids := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			ids[i] = id.String()
		}
		where = append(where, fmt.Sprintf("p.id = ANY(%s::uuid[])", next(ids)))
	}
	if q.UnansweredOnly {
		where = append(where, "p.is_answered = FALSE")
	}

	inner := fmt.Sprintf(`
		SELECT
			p.id, p.title, p.is_answered, p.created_at,
			u.id AS author_id, u.display_name AS author_display_name, u.avatar_url AS author_avatar_url,
			(SELECT COUNT(*) FROM post_upvotes c WHERE c.post_id = p.id) AS upvote_count,
			(SELECT COUNT(*) FROM replies r WHERE r.post_id = p.id) AS reply_count,
			%s AS user_upvoted,
			%s AS score
		FROM posts p
		JOIN users u ON u.id = p.author_id`, userUpvoted, score)
	if len(where) > 0 {
		inner += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}

	query := "SELECT * FROM (" + inner + "\n\t) feed"

	if q.After != nil {
		switch q.Sort {
		case SortNewest:
			query += " WHERE feed.id < " + next(q.After.ID)
		case SortVotes:
			query += fmt.Sprintf(" WHERE (feed.upvote_count, feed.id) < (%s, %s)", next(q.After.Votes), next(q.After.ID))
		}
	}

	switch q.Sort {
	case SortRelevance:
		query += " ORDER BY feed.score DESC, feed.id DESC"
	case SortVotes:
		query += " ORDER BY feed.upvote_count DESC, feed.id DESC"
	default:
		query += " ORDER BY feed.id DESC"
	}

	query += " LIMIT " + next(q.limit())

	return query, args
}

type summaryRow struct {
	ID                uuid.UUID `db:"id"`
	Title             string    `db:"title"`
	IsAnswered        bool      `db:"is_answered"`
	CreatedAt         time.Time `db:"created_at"`
	AuthorID          uuid.UUID `db:"author_id"`
	AuthorDisplayName string    `db:"author_display_name"`
	AuthorAvatarURL   *string   `db:"author_avatar_url"`
	UpvoteCount       int       `db:"upvote_count"`
	ReplyCount        int       `db:"reply_count"`
	UserUpvoted       bool      `db:"user_upvoted"`
	Score             *float64  `db:"score"`
}

func (r summaryRow) toModel() model.PostSummary {
	return model.PostSummary{
		ID:          r.ID,
		Title:       r.Title,
		IsAnswered:  r.IsAnswered,
		CreatedAt:   r.CreatedAt,
		UpvoteCount: r.UpvoteCount,
		ReplyCount:  r.ReplyCount,
		Author: model.AuthorSummary{
			ID:          r.AuthorID,
			DisplayName: r.AuthorDisplayName,
			AvatarURL:   r.AuthorAvatarURL,
		},
		UserUpvoted: r.UserUpvoted,
		Score:       r.Score,
	}
}

// NextCursor returns the cursor for the page that follows posts, or nil when
// the page is short (the feed is exhausted) or the sort has no cursor.
func NextCursor(posts []model.PostSummary, q FeedQuery) *string {
	if len(posts) == 0 || len(posts) < q.limit() {
		return nil
	}
	last := posts[len(posts)-1]
	return Cursor{ID: last.ID, Votes: last.UpvoteCount}.Encode(q.Sort)
}

// NewID returns a time-ordered id so that id order matches creation order.
func NewID() (uuid.UUID, error) {
	return uuid.NewV7()
}
