package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/events"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository/memory"
)

type recordingPusher struct {
	mu   sync.Mutex
	sent []*apns2.Notification
	err  error
}

func (p *recordingPusher) Push(n *apns2.Notification) (*apns2.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.sent = append(p.sent, n)
	return &apns2.Response{StatusCode: http.StatusOK, ApnsID: uuid.NewString()}, nil
}

func newWorker(t *testing.T) (*Worker, *recordingPusher, uuid.UUID) {
	t.Helper()
	store := memory.New()
	author := uuid.New()
	require.NoError(t, store.DeviceTokens().Register(context.Background(), author, "device-a"))
	require.NoError(t, store.DeviceTokens().Register(context.Background(), author, "device-b"))

	pusher := &recordingPusher{}
	return NewWorker(store.DeviceTokens(), pusher, "com.example.forum"), pusher, author
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestHandlePostReplied_NotifiesAuthorDevices(t *testing.T) {
	w, pusher, author := newWorker(t)

	err := w.HandlePostReplied(mustJSON(t, events.PostRepliedEvent{
		EventType:     events.SubjectPostReplied,
		PostID:        uuid.New(),
		PostTitle:     "Q1",
		PostAuthorID:  author,
		ReplyAuthorID: uuid.New(),
		ReplierName:   "grace",
	}))
	require.NoError(t, err)

	require.Len(t, pusher.sent, 2)
	assert.Equal(t, "com.example.forum", pusher.sent[0].Topic)
	body, err := json.Marshal(pusher.sent[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(body), `grace replied to \"Q1\"`)
}

func TestHandlePostReplied_SkipsOwnReply(t *testing.T) {
	w, pusher, author := newWorker(t)

	err := w.HandlePostReplied(mustJSON(t, events.PostRepliedEvent{
		PostID:        uuid.New(),
		PostAuthorID:  author,
		ReplyAuthorID: author,
	}))
	require.NoError(t, err)
	assert.Empty(t, pusher.sent)
}

func TestHandlePostAnswered(t *testing.T) {
	w, pusher, author := newWorker(t)

	require.NoError(t, w.HandlePostAnswered(mustJSON(t, events.PostAnsweredEvent{
		PostID:       uuid.New(),
		PostTitle:    "Q1",
		PostAuthorID: author,
		AnsweredBy:   author,
	})))
	assert.Empty(t, pusher.sent)

	require.NoError(t, w.HandlePostAnswered(mustJSON(t, events.PostAnsweredEvent{
		PostID:       uuid.New(),
		PostTitle:    "Q1",
		PostAuthorID: author,
		AnsweredBy:   uuid.New(),
	})))
	assert.Len(t, pusher.sent, 2)
}

func TestHandle_BadPayload(t *testing.T) {
	w, _, _ := newWorker(t)

	assert.Error(t, w.HandlePostReplied([]byte("{")))
	assert.Error(t, w.HandlePostAnswered([]byte("nope")))
}

func TestNotify_MockModeAndPushErrors(t *testing.T) {
	store := memory.New()
	author := uuid.New()
	require.NoError(t, store.DeviceTokens().Register(context.Background(), author, "device-a"))

	mock := NewWorker(store.DeviceTokens(), nil, "topic")
	assert.NoError(t, mock.HandlePostAnswered(mustJSON(t, events.PostAnsweredEvent{PostAuthorID: author, AnsweredBy: uuid.New()})))

	failing := NewWorker(store.DeviceTokens(), &recordingPusher{err: errors.New("boom")}, "topic")
	assert.NoError(t, failing.HandlePostAnswered(mustJSON(t, events.PostAnsweredEvent{PostAuthorID: author, AnsweredBy: uuid.New()})))
}

func TestNewAPNsClient_MockWithoutCredentials(t *testing.T) {
	client, err := NewAPNsClient(APNsOptions{})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = NewAPNsClient(APNsOptions{AuthKeyPath: "#commented", KeyID: "k", TeamID: "t"})
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = NewAPNsClient(APNsOptions{AuthKeyPath: "/does/not/exist.p8", KeyID: "k", TeamID: "t"})
	assert.Error(t, err)
}
