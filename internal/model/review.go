package model

import "time"

// Review is a buyer's rating of a stall. One review per (user, stall).
type Review struct {
	ID        uint64    // reviews.id
	UserID    uint64    // reviews.user_id
	StallID   uint64    // reviews.stall_id
	Rating    uint8     // reviews.rating (1..5)
	Comment   string    // reviews.comment
	CreatedAt time.Time // reviews.created_at
}
