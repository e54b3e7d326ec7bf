package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
)

const (
	createUser = `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	getUserByID = `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	getUserByEmail = `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	updateUserRole = `
		UPDATE users SET role = $1, updated_at = $2
		WHERE id = $3
	`

	usersExist = `SELECT EXISTS (SELECT 1 FROM users)`
)

type usersRepo struct {
	db DBTX
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, createUser,
		u.ID,
		domain.NormalizeEmail(u.Email),
		u.PasswordHash,
		string(u.Role),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByID, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmail, domain.NormalizeEmail(email)))
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	res, err := r.db.ExecContext(ctx, updateUserRole, string(role), now.UTC(), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, usersExist).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}

	var err error
	if u.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
