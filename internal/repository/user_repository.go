package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
)

var ErrDuplicateUser = errors.New("user with this google id or email already exists")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	// SetRole assigns a role only if none is set yet. It reports whether the row changed.
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName *string, avatarURL *string) error
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, google_id, display_name, email, avatar_url, COALESCE(role, '') AS role, created_at, updated_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) error {
	id, err := NewID()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, google_id, display_name, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowxContext(ctx, query, id, user.GoogleID, user.DisplayName, user.Email, user.AvatarURL).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.Role = model.RoleUnset
	return nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	err := r.db.GetContext(ctx, &user, query, googleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	query := `UPDATE users SET role = $1, updated_at = now() WHERE id = $2 AND role IS NULL`
	res, err := r.db.ExecContext(ctx, query, string(role), id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName *string, avatarURL *string) error {
	var setClauses []string
	var args []interface{}
	argId := 1

	if displayName != nil {
		setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argId))
		args = append(args, *displayName)
		argId++
	}
	if avatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argId))
		args = append(args, *avatarURL)
		argId++
	}

	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = now()")
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argId)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
