package repository

import (
	"context"
	"database/sql"
	"time"
)

// Refresh-token persistence on the users row. The design keeps a
// single active refresh token per user: issuing a new one overwrites
// the previous hash, which invalidates it immediately. Rotation uses
// a compare-and-replace on the stored hash so that two concurrent
// refresh attempts with the same token cannot both succeed; the
// single-row UPDATE is atomic at the storage layer.

// SetRefreshToken stores the hash and expiry of the user's active
// refresh token, replacing whatever was there before.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_expires_at=? WHERE id=?",
		tokenHash, exp, userID)
	return err
}

// RotateRefreshToken atomically swaps oldHash for newHash. It returns
// sql.ErrNoRows when the stored hash no longer matches, which is how
// a second use of a rotated-away token is detected.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, refresh_expires_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, exp, userID, oldHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByRefreshToken looks up the user whose stored refresh token
// hash matches. Expiry is checked by the caller against the returned
// row so the decision can use an injected clock.
func (r *UserRepo) FindByRefreshToken(ctx context.Context, tokenHash string) (uint64, *time.Time, error) {
	var (
		userID uint64
		exp    sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, refresh_expires_at FROM users WHERE refresh_token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &exp)
	if err != nil {
		return 0, nil, err
	}
	if !exp.Valid {
		return 0, nil, sql.ErrNoRows
	}
	t := exp.Time
	return userID, &t, nil
}

// ClearRefreshTokenByHash revokes the matching token by clearing the
// stored columns. Clearing a hash that no longer matches any row is a
// no-op, which makes logout idempotent.
func (r *UserRepo) ClearRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=NULL, refresh_expires_at=NULL WHERE refresh_token_hash=?",
		tokenHash)
	return err
}
