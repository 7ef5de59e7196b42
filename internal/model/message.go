package model

import "time"

// Message is one entry in a buyer/seller conversation about a stall.
// A thread is identified by (stall_id, buyer_id); both the buyer and
// the stall owner post into the same thread.
type Message struct {
	ID        uint64    // messages.id
	StallID   uint64    // messages.stall_id
	BuyerID   uint64    // messages.buyer_id
	SenderID  uint64    // messages.sender_id
	Body      string    // messages.body
	CreatedAt time.Time // messages.created_at
}
