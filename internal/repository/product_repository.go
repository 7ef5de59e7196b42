package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/piataonline/market-api/internal/model"
)

// ErrProductNotFound is returned when a product cannot be found.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo provides CRUD operations for the products table.
// Ownership checks go through the stall: a product may only be
// modified by the owner of the stall that lists it.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id, stall_id, name, description, price_cents, unit, stock, image_url, is_active, created_at, updated_at"

func scanProduct(row *sql.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.StallID, &p.Name, &p.Description, &p.PriceCents,
		&p.Unit, &p.Stock, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product for a stall and populates the generated ID
// and timestamps on the provided record.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `INSERT INTO products (stall_id, name, description, price_cents, unit, stock, image_url)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.StallID, p.Name, p.Description, p.PriceCents, p.Unit, p.Stock, p.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID fetches one product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)
	return scanProduct(row)
}

// Update rewrites the editable fields of a product, but only when the
// product's stall belongs to ownerID. ErrProductNotFound covers both
// a missing product and one listed by someone else's stall.
func (r *ProductRepo) Update(ctx context.Context, id, ownerID uint64, p *model.Product) error {
	const q = `UPDATE products pr
	           JOIN stalls s ON s.id = pr.stall_id
	           SET pr.name = ?, pr.description = ?, pr.price_cents = ?, pr.unit = ?,
	               pr.stock = ?, pr.image_url = ?, pr.is_active = ?, pr.updated_at = CURRENT_TIMESTAMP
	           WHERE pr.id = ? AND s.owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Description, p.PriceCents, p.Unit,
		p.Stock, p.ImageURL, p.IsActive, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product owned through the given seller's stall.
func (r *ProductRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	const q = `DELETE pr FROM products pr
	           JOIN stalls s ON s.id = pr.stall_id
	           WHERE pr.id = ? AND s.owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListByStall returns the active products of one stall ordered by id.
func (r *ProductRepo) ListByStall(ctx context.Context, stallID uint64) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE stall_id = ? AND is_active = 1 ORDER BY id", stallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p := new(model.Product)
		if err := rows.Scan(&p.ID, &p.StallID, &p.Name, &p.Description, &p.PriceCents,
			&p.Unit, &p.Stock, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
