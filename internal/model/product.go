package model

import "time"

// Product is an item listed for sale by a stall. Prices are stored
// in cents to avoid floating point drift.
//
// Fields:
//  ID         – primary key identifier.
//  StallID    – stall that lists the product.
//  Name       – product name.
//  Description – optional longer description.
//  PriceCents – unit price in cents.
//  Unit       – sale unit ("kg", "piece", "bunch", ...).
//  Stock      – units currently available.
//  ImageURL   – optional product photo.
//  IsActive   – whether the product is visible to buyers.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Product struct {
	ID          uint64    // products.id
	StallID     uint64    // products.stall_id
	Name        string    // products.name
	Description string    // products.description
	PriceCents  uint32    // products.price_cents
	Unit        string    // products.unit
	Stock       uint32    // products.stock
	ImageURL    string    // products.image_url
	IsActive    bool      // products.is_active
	CreatedAt   time.Time // products.created_at
	UpdatedAt   time.Time // products.updated_at
}
