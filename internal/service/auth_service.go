package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/jwt"
	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/oauth"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/session"
)

// Session is a freshly minted token for a user.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type AuthService interface {
	AuthCodeURL(state string) string
	LoginWithGoogle(ctx context.Context, code string) (*Session, error)
	SetRole(ctx context.Context, userID uuid.UUID, role string) (*Session, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// Authenticate verifies a token and checks it against the revocation list.
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	userRepo repository.UserRepository
	provider oauth.Provider
	tokens   *jwt.Manager
	revoker  session.RevocationStore
}

// NewAuthService wires the auth flow. revoker may be nil, in which case logout
// only clears the cookie.
func NewAuthService(userRepo repository.UserRepository, provider oauth.Provider, tokens *jwt.Manager, revoker session.RevocationStore) AuthService {
	return &authService{
		userRepo: userRepo,
		provider: provider,
		tokens:   tokens,
		revoker:  revoker,
	}
}

func (s *authService) AuthCodeURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

func (s *authService) LoginWithGoogle(ctx context.Context, code string) (*Session, error) {
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "oauth exchange failed", "error", err)
		return nil, ErrAuthenticationFailed
	}

	user, err := s.findOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) findOrCreate(ctx context.Context, identity *oauth.Identity) (*model.User, error) {
	user, err := s.userRepo.FindByGoogleID(ctx, identity.GoogleID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &model.User{
		GoogleID:    identity.GoogleID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		AvatarURL:   identity.Avatar,
	}
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		// Lost a race with a concurrent first login for the same account.
		existing, findErr := s.userRepo.FindByGoogleID(ctx, identity.GoogleID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

func (s *authService) issue(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(jwt.ClaimsFor(user), jwt.TTLFor(user.Role))
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) SetRole(ctx context.Context, userID uuid.UUID, role string) (*Session, error) {
	r := model.Role(role)
	if !r.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.RoleUnset {
		return nil, ErrRoleAlreadySet
	}

	changed, err := s.userRepo.SetRole(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrRoleAlreadySet
	}

	user.Role = r
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// A failed lookup counts as not revoked.
			slog.ErrorContext(ctx, "revocation lookup failed", "error", err)
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if s.revoker == nil || token == "" {
		return nil
	}

	claims, err := s.tokens.Parse(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}

	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
