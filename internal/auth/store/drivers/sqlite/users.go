package sqlite

import (
	"context"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

const (
	createUser = `INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	userColumns = `id, email, password_hash, role, created_at, updated_at`

	getUserByID    = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	updateUserRole = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	countUsers = `SELECT COUNT(*) FROM users`
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
		unix(u.CreatedAt),
		unix(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanOne(ctx, getUserByID, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanOne(ctx, getUserByEmail, domain.NormalizeEmail(email))
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	res, err := r.db.ExecContext(ctx, updateUserRole, string(role), unix(now), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, countUsers).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *usersRepo) scanOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u                    domain.User
		role                 string
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	if u.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}
