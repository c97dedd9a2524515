// Package notifier turns forum events into push notifications for post authors.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"

	"github.com/AbhishekX2004/LearnatoForum/internal/events"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
)

const lookupTimeout = 5 * time.Second

type Pusher interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

type Worker struct {
	tokens repository.DeviceTokenRepository
	pusher Pusher
	topic  string
}

// NewWorker builds a worker. A nil pusher logs notifications instead of
// sending them.
func NewWorker(tokens repository.DeviceTokenRepository, pusher Pusher, topic string) *Worker {
	return &Worker{tokens: tokens, pusher: pusher, topic: topic}
}

// Subscribe attaches the worker to the reply and answer subjects.
func (w *Worker) Subscribe(nc *nats.Conn) ([]*nats.Subscription, error) {
	handlers := map[string]func([]byte) error{
		events.SubjectPostReplied:  w.HandlePostReplied,
		events.SubjectPostAnswered: w.HandlePostAnswered,
	}

	var subs []*nats.Subscription
	for subject, handle := range handlers {
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			if err := handle(msg.Data); err != nil {
				slog.Error("notification failed", "subject", msg.Subject, "error", err)
			}
		})
		if err != nil {
			return subs, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (w *Worker) HandlePostReplied(data []byte) error {
	var event events.PostRepliedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode %s: %w", events.SubjectPostReplied, err)
	}

	if event.ReplyAuthorID == event.PostAuthorID {
		return nil
	}

	p := payload.NewPayload().
		AlertTitle("New reply").
		AlertBody(fmt.Sprintf("%s replied to \"%s\"", event.ReplierName, event.PostTitle)).
		Sound("default").
		Custom("postId", event.PostID.String())

	return w.notify(event.PostAuthorID, p)
}

func (w *Worker) HandlePostAnswered(data []byte) error {
	var event events.PostAnsweredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode %s: %w", events.SubjectPostAnswered, err)
	}

	if event.AnsweredBy == event.PostAuthorID {
		return nil
	}

	p := payload.NewPayload().
		AlertTitle("Question answered").
		AlertBody(fmt.Sprintf("\"%s\" was marked as answered", event.PostTitle)).
		Sound("default").
		Custom("postId", event.PostID.String())

	return w.notify(event.PostAuthorID, p)
}

func (w *Worker) notify(userID uuid.UUID, p *payload.Payload) error {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	tokens, err := w.tokens.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("device tokens for %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		slog.Debug("no device tokens, nothing sent", "user_id", userID)
		return nil
	}

	for _, deviceToken := range tokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       w.topic,
			Payload:     p,
		}

		if w.pusher == nil {
			slog.Info("push sent (mock)", "user_id", userID, "device_token", deviceToken)
			continue
		}

		res, err := w.pusher.Push(notification)
		switch {
		case err != nil:
			slog.Error("push failed", "user_id", userID, "error", err)
		case res.Sent():
			slog.Info("push sent", "user_id", userID, "apns_id", res.ApnsID)
		default:
			slog.Warn("push rejected", "user_id", userID, "reason", res.Reason)
		}
	}
	return nil
}
