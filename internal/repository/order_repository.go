package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/piataonline/market-api/internal/model"
)

// ErrOrderNotFound is returned when an order cannot be found.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo provides CRUD operations for orders and their items.
// An order groups the lines of a single cart checkout against one
// stall. Item name and unit price are snapshotted at insert time.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = "id, buyer_id, stall_id, status, total_amount_cents, created_at, updated_at"

// CreateWithItems inserts an order and all of its items in one
// transaction. The order's ID, status and timestamps are populated on
// the provided record. Passing no items is an error at the handler
// layer; here it would simply produce an empty order, so callers must
// validate first.
func (r *OrderRepo) CreateWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (buyer_id, stall_id, status, total_amount_cents) VALUES (?, ?, ?, ?)",
		o.BuyerID, o.StallID, model.OrderPending, o.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	if len(items) > 0 {
		query := "INSERT INTO order_items (order_id, product_id, name, price_cents, quantity) VALUES "
		args := make([]interface{}, 0, len(items)*5)
		ph := make([]string, 0, len(items))
		for _, it := range items {
			ph = append(ph, "(?, ?, ?, ?, ?)")
			args = append(args, o.ID, it.ProductID, it.Name, it.PriceCents, it.Quantity)
		}
		if _, err = tx.ExecContext(ctx, query+strings.Join(ph, ", "), args...); err != nil {
			return err
		}
	}

	// Query back the full row to populate status and timestamps.
	err = tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", o.ID).
		Scan(&o.ID, &o.BuyerID, &o.StallID, &o.Status, &o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt)
	return err
}

// GetByID fetches one order by id.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", id).
		Scan(&o.ID, &o.BuyerID, &o.StallID, &o.Status, &o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ItemsByOrder returns the item lines of one order ordered by id.
func (r *OrderRepo) ItemsByOrder(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, name, price_cents, quantity, created_at FROM order_items WHERE order_id = ? ORDER BY id",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.PriceCents, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an order to a new status. The WHERE clause pins
// the current status so the transition check in the handler cannot be
// raced by a concurrent update; zero affected rows means the order
// moved in the meantime (or never existed) and maps to ErrConflict /
// ErrOrderNotFound respectively.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// ListByBuyer returns a buyer's orders, newest first.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE buyer_id = ? ORDER BY id DESC", buyerID)
}

// ListByStall returns the orders placed against a stall, newest first.
func (r *OrderRepo) ListByStall(ctx context.Context, stallID uint64) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE stall_id = ? ORDER BY id DESC", stallID)
}

// ListAll returns every order. Back-office use only.
func (r *OrderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY id DESC")
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o := new(model.Order)
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.StallID, &o.Status, &o.TotalAmountCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
