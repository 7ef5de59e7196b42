package model

import "time"

// Stall represents a seller's storefront in the marketplace. A user
// owns at most one stall; the stall is the unit of catalog ownership
// and the consistency boundary for carts and orders (an order is
// always placed against exactly one stall).
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user who owns the stall.
//  Name        – public stall name.
//  Description – free-form description shown on the stall page.
//  Location    – market location of the stall.
//  ImageURL    – optional banner/cover image.
//  IsActive    – whether the stall is visible to buyers.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Stall struct {
	ID          uint64    // stalls.id
	OwnerID     uint64    // stalls.owner_id
	Name        string    // stalls.name
	Description string    // stalls.description
	Location    string    // stalls.location
	ImageURL    string    // stalls.image_url
	IsActive    bool      // stalls.is_active
	CreatedAt   time.Time // stalls.created_at
	UpdatedAt   time.Time // stalls.updated_at
}
