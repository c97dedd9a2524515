package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

const (
	// ProvisionalTTL applies while the user has not chosen a role yet.
	ProvisionalTTL = 15 * time.Minute
	SessionTTL     = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID      uuid.UUID  `json:"userId"`
	Role        model.Role `json:"role"`
	DisplayName string     `json:"displayName"`
	Avatar      *string    `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// TTLFor returns how long a token for a user with the given role stays valid.
func TTLFor(role model.Role) time.Duration {
	if role == model.RoleUnset {
		return ProvisionalTTL
	}
	return SessionTTL
}

// ClaimsFor builds the claim set for a user.
func ClaimsFor(u *model.User) Claims {
	return Claims{
		UserID:      u.ID,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		Avatar:      u.AvatarURL,
	}
}

type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// Issue signs claims with HS256. Subject, id, issued-at and expiry are filled in here.
func (m *Manager) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	claims.Subject = claims.UserID.String()
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
