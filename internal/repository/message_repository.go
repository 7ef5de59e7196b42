package repository

import (
	"context"
	"database/sql"

	"github.com/piataonline/market-api/internal/model"
)

// MessageRepo persists buyer/seller conversations. A thread is the
// pair (stall_id, buyer_id); the stall owner and the buyer both post
// into it with their own sender_id.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create appends a message to a thread.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (stall_id, buyer_id, sender_id, body) VALUES (?, ?, ?, ?)",
		m.StallID, m.BuyerID, m.SenderID, m.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM messages WHERE id = ?", m.ID).Scan(&m.CreatedAt)
}

// ListThread returns a conversation oldest first.
func (r *MessageRepo) ListThread(ctx context.Context, stallID, buyerID uint64) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, stall_id, buyer_id, sender_id, body, created_at FROM messages WHERE stall_id = ? AND buyer_id = ? ORDER BY id",
		stallID, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		m := new(model.Message)
		if err := rows.Scan(&m.ID, &m.StallID, &m.BuyerID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBuyersForStall returns the distinct buyers that have a thread
// with the stall, so the seller can open each conversation.
func (r *MessageRepo) ListBuyersForStall(ctx context.Context, stallID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT buyer_id FROM messages WHERE stall_id = ? ORDER BY buyer_id", stallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
