package postgres

import (
	"context"
	"database/sql"
	"time"

	"geckohub/internal/domain/users"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type userRow struct {
	ID          int64     `db:"id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	Provider    string    `db:"provider"`
	IsAdmin     bool      `db:"is_admin"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r userRow) toDomain() users.User {
	return users.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Provider:    r.Provider,
		IsAdmin:     r.IsAdmin,
		CreatedAt:   r.CreatedAt,
	}
}

type UsersRepo struct {
	db *sqlx.DB
}

func NewUsersRepo(db *sqlx.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// GetOrCreateByEmail: INSERT ... ON CONFLICT DO NOTHING y luego lectura; si
// otro request ganó la carrera, leemos su fila.
func (r *UsersRepo) GetOrCreateByEmail(ctx context.Context, u users.User) (users.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, display_name, provider, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`, u.Email, u.DisplayName, u.Provider, u.IsAdmin, u.CreatedAt)
	if err != nil {
		return users.User{}, errors.Wrap(err, "insert user")
	}

	var row userRow
	err = r.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, provider, is_admin, created_at
		FROM users WHERE email = $1
	`, u.Email)
	if err != nil {
		return users.User{}, errors.Wrap(err, "get user by email")
	}
	return row.toDomain(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, email, display_name, provider, is_admin, created_at
		FROM users WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, ErrNotFound
	}
	if err != nil {
		return users.User{}, errors.Wrap(err, "get user")
	}
	return row.toDomain(), nil
}
