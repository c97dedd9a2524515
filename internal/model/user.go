package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUnset      Role = ""
	RoleLearner    Role = "learner"
	RoleInstructor Role = "instructor"
)

// Valid reports whether r is one of the roles a user may select.
func (r Role) Valid() bool {
	return r == RoleLearner || r == RoleInstructor
}

type User struct {
	ID          uuid.UUID `db:"id" json:"_id"`
	GoogleID    string    `db:"google_id" json:"-"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Email       string    `db:"email" json:"email"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar,omitempty"`
	Role        Role      `db:"role" json:"role,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// PublicProfile is what other users may see about a user.
type PublicProfile struct {
	ID          uuid.UUID `json:"_id"`
	DisplayName string    `json:"displayName"`
	AvatarURL   *string   `json:"avatar,omitempty"`
	Role        Role      `json:"role,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

type AuthorSummary struct {
	ID          uuid.UUID `json:"_id"`
	DisplayName string    `json:"displayName"`
	AvatarURL   *string   `json:"avatar,omitempty"`
}

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}
