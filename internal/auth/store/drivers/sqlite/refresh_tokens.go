package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
)

const (
	registerRefreshToken = `INSERT INTO refresh_tokens (jti, user_id, issued_at, expires_at, revoked)
VALUES (?, ?, ?, ?, 0)`

	// A single conditional UPDATE is the compare-and-set: of two concurrent
	// consumers only one sees the row with revoked = 0.
	consumeRefreshToken = `UPDATE refresh_tokens
SET revoked = 1, revoked_at = ?
WHERE jti = ? AND revoked = 0 AND expires_at > ?
RETURNING user_id`

	getRefreshToken = `SELECT jti, user_id, issued_at, expires_at, revoked, revoked_at
FROM refresh_tokens WHERE jti = ?`

	revokeRefreshToken = `UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
WHERE jti = ? AND revoked = 0`

	revokeUserRefreshTokens = `UPDATE refresh_tokens SET revoked = 1, revoked_at = ?
WHERE user_id = ? AND revoked = 0`

	deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at <= ?`
)

type refreshTokensRepo struct {
	db DBTX
}

func (r *refreshTokensRepo) Register(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, registerRefreshToken,
		t.JTI, t.UserID, unix(t.IssuedAt), unix(t.ExpiresAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) Consume(ctx context.Context, jti string, now time.Time) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, consumeRefreshToken, unix(now), jti, unix(now)).Scan(&userID)
	if err != nil {
		return "", mapNotFound(err)
	}
	return userID, nil
}

func (r *refreshTokensRepo) Get(ctx context.Context, jti string) (domain.RefreshToken, error) {
	var (
		t                   domain.RefreshToken
		issuedAt, expiresAt int64
		revokedAt           sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, getRefreshToken, jti).Scan(
		&t.JTI, &t.UserID, &issuedAt, &expiresAt, &t.Revoked, &revokedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.IssuedAt = fromUnix(issuedAt)
	t.ExpiresAt = fromUnix(expiresAt)
	t.RevokedAt = fromNullUnix(revokedAt)
	return t, nil
}

func (r *refreshTokensRepo) Revoke(ctx context.Context, jti string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, revokeRefreshToken, unix(now), jti)
	return err
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, revokeUserRefreshTokens, unix(now), userID)
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredRefreshTokens, unix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
