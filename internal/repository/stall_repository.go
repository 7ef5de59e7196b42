// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for stalls. A stall is a seller's
// storefront; each user owns at most one and it is the unit of catalog
// ownership. Only sanitized fields should be exposed in public API responses.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/piataonline/market-api/internal/model"
)

// ErrStallNotFound is returned when a stall cannot be found in the DB.
var ErrStallNotFound = errors.New("stall not found")

// StallRepo encapsulates all database queries related to stalls.
type StallRepo struct {
	db *sql.DB
}

// NewStallRepo constructs a StallRepo with the provided DB handle.
func NewStallRepo(db *sql.DB) *StallRepo {
	return &StallRepo{db: db}
}

const stallColumns = "id, owner_id, name, description, location, image_url, is_active, created_at, updated_at"

func scanStall(row *sql.Row) (*model.Stall, error) {
	var s model.Stall
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Location,
		&s.ImageURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStallNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new stall. The unique index on owner_id enforces
// one stall per seller; a duplicate insert maps to ErrConflict. On
// success the generated ID and timestamp fields are populated.
func (r *StallRepo) Create(ctx context.Context, s *model.Stall) error {
	const qInsert = "INSERT INTO stalls (owner_id, name, description, location, image_url) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, s.OwnerID, s.Name, s.Description, s.Location, s.ImageURL)
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
	s.ID = uint64(id)

	// Follow-up SELECT to populate default timestamp fields.
	got, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID fetches a stall by its ID regardless of owner.
func (r *StallRepo) GetByID(ctx context.Context, id uint64) (*model.Stall, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+stallColumns+" FROM stalls WHERE id = ?", id)
	return scanStall(row)
}

// GetByOwner fetches the stall owned by a user.
func (r *StallRepo) GetByOwner(ctx context.Context, ownerID uint64) (*model.Stall, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+stallColumns+" FROM stalls WHERE owner_id = ?", ownerID)
	return scanStall(row)
}

// Update rewrites the editable stall fields if the stall belongs to
// the provided owner. Returns ErrStallNotFound when no row is
// affected (not found / not owned).
func (r *StallRepo) Update(ctx context.Context, id, ownerID uint64, name, description, location, imageURL string, isActive bool) error {
	const q = `UPDATE stalls
	           SET name = ?, description = ?, location = ?, image_url = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, location, imageURL, isActive, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStallNotFound
	}
	return nil
}

// ListActive returns all active stalls ordered by id. Used by the
// public browse endpoints; inactive stalls stay hidden from buyers.
func (r *StallRepo) ListActive(ctx context.Context) ([]*model.Stall, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+stallColumns+" FROM stalls WHERE is_active = 1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Stall
	for rows.Next() {
		s := new(model.Stall)
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Location,
			&s.ImageURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
