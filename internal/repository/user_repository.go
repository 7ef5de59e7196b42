package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/piataonline/market-api/internal/model"
)

// UserRepo encapsulates all database queries against the users table.
// Users are keyed by the (provider, provider_uid) pair for login; the
// numeric id is used everywhere else.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, email, location, is_admin, COALESCE(stall_id, 0),
	avatar_url, provider, provider_uid, COALESCE(refresh_token_hash, ''),
	refresh_expires_at, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Location, &u.IsAdmin, &u.StallID,
		&u.AvatarURL, &u.Provider, &u.ProviderUID, &u.RefreshTokenHash,
		&refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if refresh.Valid {
		t := refresh.Time
		u.RefreshExpiresAt = &t
	}
	return u, nil
}

// FindByProviderUID fetches the user registered for a provider subject.
// Returns sql.ErrNoRows when no such user exists.
func (r *UserRepo) FindByProviderUID(ctx context.Context, provider, uid string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE provider=? AND provider_uid=? LIMIT 1",
		provider, uid)
	return scanUser(row)
}

// Create inserts a user from a verified provider profile and returns
// the stored row. The unique (provider, provider_uid) index makes the
// insert idempotent: a concurrent first login loses the race with a
// 1062 duplicate-key error, which is mapped to ErrConflict so callers
// can re-read the winning row.
func (r *UserRepo) Create(ctx context.Context, name, email, avatarURL, provider, uid string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, avatar_url, provider, provider_uid) VALUES (?,?,?,?,?)",
		name, email, avatarURL, provider, uid)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrConflict
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateProfile updates the user-editable profile fields. Provider
// profile data never overwrites these after registration.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, location, avatarURL string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, location=?, avatar_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		name, location, avatarURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStallID links a user to the stall they own.
func (r *UserRepo) SetStallID(ctx context.Context, id, stallID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET stall_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", stallID, id)
	return err
}

// ListAll returns every user ordered by id. Back-office use only.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u       model.User
			refresh sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Location, &u.IsAdmin, &u.StallID,
			&u.AvatarURL, &u.Provider, &u.ProviderUID, &u.RefreshTokenHash,
			&refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if refresh.Valid {
			t := refresh.Time
			u.RefreshExpiresAt = &t
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
