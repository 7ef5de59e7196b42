// Package cart holds a buyer's in-progress cart and enforces the
// single-stall rule: every item in a non-empty cart belongs to the
// same stall. The cart is an explicit state object mutated through a
// small API; durable persistence is an injected collaborator invoked
// after each successful mutation, never something the state reaches
// for itself.
package cart

import (
	"fmt"

	"github.com/google/uuid"
)

// Product is the catalog snapshot a cart line keeps. Price is in
// cents, consistent with the rest of the system.
type Product struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	PriceCents uint32 `json:"priceCents"`
	StallID    uint64 `json:"stallId"`
	ImageURL   string `json:"imageUrl"`
}

// Item is one cart line: a product snapshot plus a positive quantity.
// The line id is generated locally and has no server meaning.
type Item struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity uint32  `json:"quantity"`
}

// StallConflictError reports an attempt to add a product from a
// different stall than the one the cart is bound to. The cart state
// is left untouched; the caller decides whether to clear and retry.
type StallConflictError struct {
	CartStallID    uint64 // stall the cart currently belongs to
	ProductStallID uint64 // stall of the rejected product
}

func (e *StallConflictError) Error() string {
	return fmt.Sprintf("cart belongs to stall %d, product belongs to stall %d",
		e.CartStallID, e.ProductStallID)
}

// Cart is the mutable cart state. StallID is 0 while the cart is
// empty; a non-empty cart always has the stall id of its items. Open
// is a presentation flag (cart drawer visible) and is excluded from
// persistence.
type Cart struct {
	items   []Item
	stallID uint64
	store   Store
	Open    bool
}

// New returns a cart backed by the given store. When the store holds
// a previously saved state it is restored verbatim; an empty or
// missing state yields an empty cart. Store errors surface to the
// caller so a corrupted persistence layer is not silently ignored.
func New(store Store) (*Cart, error) {
	c := &Cart{store: store}
	if store == nil {
		return c, nil
	}
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state != nil {
		c.items = state.Items
		c.stallID = state.StallID
	}
	return c, nil
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// StallID returns the stall the cart is bound to, 0 when empty.
func (c *Cart) StallID() uint64 { return c.stallID }

// AddItem puts quantity units of a product into the cart. Adding a
// product from another stall to a non-empty cart fails with
// *StallConflictError and changes nothing. Re-adding a product
// accumulates onto its existing line; quantities never overwrite.
func (c *Cart) AddItem(p Product, quantity uint32) error {
	if quantity == 0 {
		quantity = 1
	}
	if len(c.items) > 0 && c.stallID != p.StallID {
		return &StallConflictError{CartStallID: c.stallID, ProductStallID: p.StallID}
	}
	found := false
	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, Item{ID: uuid.NewString(), Product: p, Quantity: quantity})
	}
	c.stallID = p.StallID
	c.Open = true
	return c.persist()
}

// RemoveItem drops the line for a product. Removing an id that is not
// in the cart is a no-op. When the last line goes, the cart unbinds
// from its stall and may accept any stall again.
func (c *Cart) RemoveItem(productID uint64) error {
	idx := -1
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	if len(c.items) == 0 {
		c.stallID = 0
	}
	return c.persist()
}

// UpdateQuantity replaces a line's quantity in place. A quantity of
// zero (or below, at the API boundary) behaves exactly like
// RemoveItem. It never creates a line for an unknown product; that
// must go through AddItem so the stall check runs.
func (c *Cart) UpdateQuantity(productID uint64, quantity uint32) error {
	if quantity == 0 {
		return c.RemoveItem(productID)
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return c.persist()
		}
	}
	return nil
}

// Clear unconditionally empties the cart.
func (c *Cart) Clear() error {
	c.items = nil
	c.stallID = 0
	return c.persist()
}

// Total is the sum of price × quantity over all lines, in cents.
// Recomputed on every read so it can never drift from the items.
func (c *Cart) Total() uint64 {
	var total uint64
	for _, it := range c.items {
		total += uint64(it.Product.PriceCents) * uint64(it.Quantity)
	}
	return total
}

// ItemCount is the sum of all line quantities.
func (c *Cart) ItemCount() uint32 {
	var n uint32
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// CheckoutItem is one line of an order-creation request.
type CheckoutItem struct {
	ProductID uint64 `json:"productId"`
	Quantity  uint32 `json:"quantity"`
}

// CheckoutRequest is the payload handed to the order endpoint when
// the buyer checks out.
type CheckoutRequest struct {
	StallID uint64         `json:"stallId"`
	Items   []CheckoutItem `json:"items"`
}

// Checkout serializes the current state into an order-creation
// request. The cart itself is not cleared; that happens once the
// order has been accepted.
func (c *Cart) Checkout() CheckoutRequest {
	req := CheckoutRequest{StallID: c.stallID}
	for _, it := range c.items {
		req.Items = append(req.Items, CheckoutItem{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	return req
}

func (c *Cart) persist() error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(&State{Items: c.items, StallID: c.stallID})
}
