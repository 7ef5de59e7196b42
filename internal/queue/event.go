// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCreatedEvent is published when a buyer's checkout produces an
// order. It contains enough information for downstream consumers to
// log, notify the seller, or trigger analytics without querying the
// primary database.
type OrderCreatedEvent struct {
    OrderID          uint64 `json:"order_id"`
    BuyerID          uint64 `json:"buyer_id"`
    StallID          uint64 `json:"stall_id"`
    StallName        string `json:"stall_name"`
    TotalAmountCents uint32 `json:"total_amount_cents"`
    ItemCount        int    `json:"item_count"`
    CreatedAt        string `json:"created_at"`
}
