package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

const (
	registerRefreshToken = `
		INSERT INTO refresh_tokens (jti, user_id, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)
	`

	// Row-level locking makes concurrent consumers of one jti serialize on
	// the row; the loser re-evaluates revoked = FALSE and matches nothing.
	consumeRefreshToken = `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE jti = $2 AND revoked = FALSE AND expires_at > $1
		RETURNING user_id
	`

	getRefreshToken = `
		SELECT jti, user_id, issued_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE jti = $1
	`

	revokeRefreshToken = `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1
		WHERE jti = $2 AND revoked = FALSE
	`

	revokeUserRefreshTokens = `
		UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE
	`

	deleteExpiredRefreshTokens = `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
)

type refreshTokensRepo struct {
	db DBTX
}

func (r *refreshTokensRepo) Register(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, registerRefreshToken,
		t.JTI, t.UserID, t.IssuedAt.UTC(), t.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) Consume(ctx context.Context, jti string, now time.Time) (string, error) {
	var userID string
	if err := r.db.QueryRowContext(ctx, consumeRefreshToken, now.UTC(), jti).Scan(&userID); err != nil {
		return "", mapNotFound(err)
	}
	return userID, nil
}

func (r *refreshTokensRepo) Get(ctx context.Context, jti string) (domain.RefreshToken, error) {
	var (
		t         domain.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, getRefreshToken, jti).Scan(
		&t.JTI, &t.UserID, &t.IssuedAt, &t.ExpiresAt, &t.Revoked, &revokedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.IssuedAt = t.IssuedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	if revokedAt.Valid {
		at := revokedAt.Time.UTC()
		t.RevokedAt = &at
	}
	return t, nil
}

func (r *refreshTokensRepo) Revoke(ctx context.Context, jti string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, revokeRefreshToken, now.UTC(), jti)
	return err
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, revokeUserRefreshTokens, now.UTC(), userID)
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredRefreshTokens, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
