package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

const (
	SubjectPostReplied  = "post.replied"
	SubjectPostAnswered = "post.answered"
)

type EventPublisher interface {
	PublishPostReplied(post *model.Post, reply *model.Reply, replierName string) error
	PublishPostAnswered(post *model.Post, answeredBy uuid.UUID) error
}

type PostRepliedEvent struct {
	EventType     string    `json:"event_type"`
	PostID        uuid.UUID `json:"post_id"`
	PostTitle     string    `json:"post_title"`
	PostAuthorID  uuid.UUID `json:"post_author_id"`
	ReplyID       uuid.UUID `json:"reply_id"`
	ReplyAuthorID uuid.UUID `json:"reply_author_id"`
	ReplierName   string    `json:"replier_name"`
	RepliedAt     time.Time `json:"replied_at"`
}

type PostAnsweredEvent struct {
	EventType    string    `json:"event_type"`
	PostID       uuid.UUID `json:"post_id"`
	PostTitle    string    `json:"post_title"`
	PostAuthorID uuid.UUID `json:"post_author_id"`
	AnsweredBy   uuid.UUID `json:"answered_by"`
	AnsweredAt   time.Time `json:"answered_at"`
}

type conn interface {
	Publish(subject string, data []byte) error
}

type NatsPublisher struct {
	conn conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(natsURL, nats.Name("forum-api"))
	if err != nil {
		return nil, nil, err
	}

	return &NatsPublisher{conn: nc}, nc, nil
}

func (p *NatsPublisher) PublishPostReplied(post *model.Post, reply *model.Reply, replierName string) error {
	return p.publish(SubjectPostReplied, PostRepliedEvent{
		EventType:     SubjectPostReplied,
		PostID:        post.ID,
		PostTitle:     post.Title,
		PostAuthorID:  post.AuthorID,
		ReplyID:       reply.ID,
		ReplyAuthorID: reply.AuthorID,
		ReplierName:   replierName,
		RepliedAt:     reply.CreatedAt,
	})
}

func (p *NatsPublisher) PublishPostAnswered(post *model.Post, answeredBy uuid.UUID) error {
	return p.publish(SubjectPostAnswered, PostAnsweredEvent{
		EventType:    SubjectPostAnswered,
		PostID:       post.ID,
		PostTitle:    post.Title,
		PostAuthorID: post.AuthorID,
		AnsweredBy:   answeredBy,
		AnsweredAt:   time.Now(),
	})
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling event JSON: %v", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		log.Printf("Error publishing to NATS: %v", err)
		return err
	}

	log.Printf("Published event to NATS on subject '%s'", subject)
	return nil
}

// NopPublisher drops events. Used when NATS_URL is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishPostReplied(*model.Post, *model.Reply, string) error { return nil }
func (NopPublisher) PublishPostAnswered(*model.Post, uuid.UUID) error            { return nil }
