package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var ErrIncompleteProfile = errors.New("identity provider returned an incomplete profile")

// Identity is the verified external identity returned by a provider.
type Identity struct {
	GoogleID    string
	DisplayName string
	Email       string
	Avatar      *string
}

type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

type GoogleProvider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	return info.identity()
}

func (info googleUserInfo) identity() (*Identity, error) {
	if info.Sub == "" || info.Email == "" {
		return nil, ErrIncompleteProfile
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name, _, _ = strings.Cut(info.Email, "@")
	}

	id := &Identity{GoogleID: info.Sub, DisplayName: name, Email: info.Email}
	if info.Picture != "" {
		picture := info.Picture
		id.Avatar = &picture
	}
	return id, nil
}
