package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/piataonline/market-api/internal/model"
)

// ReviewRepo persists buyer reviews of stalls. A unique index on
// (user_id, stall_id) enforces one review per buyer per stall.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review. A duplicate (user, stall) pair maps to
// ErrConflict so the handler can answer 409.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (user_id, stall_id, rating, comment) VALUES (?, ?, ?, ?)",
		rv.UserID, rv.StallID, rv.Rating, rv.Comment)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM reviews WHERE id = ?", rv.ID).Scan(&rv.CreatedAt)
}

// ListByStall returns the reviews of one stall, newest first.
func (r *ReviewRepo) ListByStall(ctx context.Context, stallID uint64) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, stall_id, rating, comment, created_at FROM reviews WHERE stall_id = ? ORDER BY id DESC",
		stallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Review
	for rows.Next() {
		rv := new(model.Review)
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.StallID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
