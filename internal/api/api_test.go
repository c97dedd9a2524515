package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/AbhishekX2004/LearnatoForum/internal/events"
	"github.com/AbhishekX2004/LearnatoForum/internal/jwt"
	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/oauth"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository/memory"
	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

const frontendURL = "http://localhost:5173"

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (stubProvider) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	if code != "good-code" {
		return nil, errors.New("exchange failed")
	}
	return &oauth.Identity{GoogleID: "g-new", DisplayName: "Newcomer", Email: "new@example.com"}, nil
}

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *jwt.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	tokens := jwt.NewManager("handler-test-secret")

	authService := service.NewAuthService(store.Users(), stubProvider{}, tokens, nil)
	postService := service.NewPostService(store.Posts(), store.Replies(), store.Users(), events.NopPublisher{}, nil)
	feedService := service.NewFeedService(store.Posts(), store.Users(), nil)
	userService := service.NewUserService(store.Users(), store.DeviceTokens(), nil)

	app := NewApp(AppOptions{ServiceName: "forum-test", CORSOrigin: frontendURL})
	SetupRoutes(app, authService, Handlers{
		Auth:   NewAuthHandler(authService, frontendURL, false),
		Posts:  NewPostHandler(postService, feedService),
		Search: NewSearchHandler(feedService),
		Users:  NewUserHandler(userService, feedService),
	})

	return &testServer{app: app, store: store, tokens: tokens}
}

// login creates a user with the given role and returns a session token for it.
func (s *testServer) login(t *testing.T, name string, role model.Role) (*model.User, string) {
	t.Helper()
	ctx := context.Background()
	u := &model.User{GoogleID: "g-" + name, DisplayName: name, Email: name + "@example.com"}
	require.NoError(t, s.store.Users().Create(ctx, u))
	if role != model.RoleUnset {
		_, err := s.store.Users().SetRole(ctx, u.ID, role)
		require.NoError(t, err)
		u.Role = role
	}
	token, _, err := s.tokens.Issue(jwt.ClaimsFor(u), jwt.TTLFor(role))
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string, extra ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	for _, c := range extra {
		req.AddCookie(c)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
