package model

import "time"

// Order status values. An order starts as PENDING when the buyer
// submits a cart, is CONFIRMED by the seller, and ends DELIVERED.
// CANCELLED is reachable only from PENDING.
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// CanTransition reports whether an order may move from one status to
// another. The zero transitions (same status) are not allowed.
func CanTransition(from, to string) bool {
	switch from {
	case OrderPending:
		return to == OrderConfirmed || to == OrderCancelled
	case OrderConfirmed:
		return to == OrderDelivered
	}
	return false
}

// Order records a buyer's purchase from a single stall. It
// aggregates one or more order items submitted in a single cart
// checkout and tracks the overall status and total amount.
//
// Fields:
//  ID               – primary key identifier.
//  BuyerID          – user who placed the order.
//  StallID          – stall the order was placed against.
//  Status           – state of the order (see status constants).
//  TotalAmountCents – total price in cents for all items.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64    // orders.id
	BuyerID          uint64    // orders.buyer_id
	StallID          uint64    // orders.stall_id
	Status           string    // orders.status
	TotalAmountCents uint32    // orders.total_amount_cents
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}

// OrderItem is a single product line inside an order. The name and
// unit price are snapshotted at checkout time so later catalog edits
// do not rewrite order history.
//
// Fields:
//  ID         – primary key identifier.
//  OrderID    – reference to the order.
//  ProductID  – product that was purchased.
//  Name       – product name at checkout time.
//  PriceCents – unit price in cents at checkout time.
//  Quantity   – number of units purchased.
//  CreatedAt  – creation timestamp.
type OrderItem struct {
	ID         uint64    // order_items.id
	OrderID    uint64    // order_items.order_id
	ProductID  uint64    // order_items.product_id
	Name       string    // order_items.name
	PriceCents uint32    // order_items.price_cents
	Quantity   uint32    // order_items.quantity
	CreatedAt  time.Time // order_items.created_at
}
