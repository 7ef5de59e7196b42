package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piataonline/market-api/internal/cart"
	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/queue"
	"github.com/piataonline/market-api/internal/repository"
)

// OrderHandler turns a cart checkout into an order and drives the
// order status machine. The request body of Create is exactly the
// payload the cart's Checkout serialization produces.
type OrderHandler struct {
	Orders   *repository.OrderRepo
	Products *repository.ProductRepo
	Stalls   *repository.StallRepo
}

func NewOrderHandler(o *repository.OrderRepo, p *repository.ProductRepo, s *repository.StallRepo) *OrderHandler {
	return &OrderHandler{Orders: o, Products: p, Stalls: s}
}

type orderItemResp struct {
	ProductID  uint64 `json:"productId"`
	Name       string `json:"name"`
	PriceCents uint32 `json:"priceCents"`
	Quantity   uint32 `json:"quantity"`
}

type orderResp struct {
	ID               uint64          `json:"id"`
	StallID          uint64          `json:"stallId"`
	BuyerID          uint64          `json:"buyerId"`
	Status           string          `json:"status"`
	TotalAmountCents uint32          `json:"totalAmountCents"`
	CreatedAt        time.Time       `json:"createdAt"`
	Items            []orderItemResp `json:"items,omitempty"`
}

func toOrderResp(o *model.Order, items []model.OrderItem) orderResp {
	resp := orderResp{
		ID: o.ID, StallID: o.StallID, BuyerID: o.BuyerID, Status: o.Status,
		TotalAmountCents: o.TotalAmountCents, CreatedAt: o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID: it.ProductID, Name: it.Name, PriceCents: it.PriceCents, Quantity: it.Quantity,
		})
	}
	return resp
}

// Create handles POST /v1/orders. Every line is re-checked against
// the catalog: the product must exist, be active, and belong to the
// stall named in the request. Prices are snapshotted from the
// catalog, never taken from the client.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	var req cart.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid body")
	}
	if req.StallID == 0 || len(req.Items) == 0 {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "stallId and items required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stall, err := h.Stalls.GetByID(ctx, req.StallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}

	var (
		items []model.OrderItem
		total uint64
	)
	for _, line := range req.Items {
		if line.Quantity == 0 {
			return jsonError(c, http.StatusBadRequest, codeBadRequest, "item quantity must be positive")
		}
		p, err := h.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return jsonError(c, http.StatusNotFound, codeNotFound, "product not found")
			}
			return jsonError(c, http.StatusInternalServerError, codeInternal, "load product failed")
		}
		if !p.IsActive || p.StallID != req.StallID {
			return jsonError(c, http.StatusConflict, codeConflict, "product does not belong to the requested stall")
		}
		items = append(items, model.OrderItem{
			ProductID: p.ID, Name: p.Name, PriceCents: p.PriceCents, Quantity: line.Quantity,
		})
		total += uint64(p.PriceCents) * uint64(line.Quantity)
	}

	order := &model.Order{BuyerID: userID, StallID: req.StallID, TotalAmountCents: uint32(total)}
	if err := h.Orders.CreateWithItems(ctx, order, items); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "create order failed")
	}

	// Notify the seller out of band; a broker outage must not fail
	// the checkout, so the error is deliberately ignored.
	event := queue.OrderCreatedEvent{
		OrderID:          order.ID,
		BuyerID:          order.BuyerID,
		StallID:          order.StallID,
		StallName:        stall.Name,
		TotalAmountCents: order.TotalAmountCents,
		ItemCount:        len(items),
		CreatedAt:        order.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() { _ = queue.PublishOrderCreated(context.Background(), event) }()

	return c.JSON(http.StatusCreated, toOrderResp(order, items))
}

// Get handles GET /v1/orders/:id. Visible to the buyer, the stall
// owner, and nobody else.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid order id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "order not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load order failed")
	}
	if order.BuyerID != userID && !h.ownsStall(ctx, userID, order.StallID) {
		return jsonError(c, http.StatusForbidden, codeForbidden, "not your order")
	}

	items, err := h.Orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load order items failed")
	}
	return c.JSON(http.StatusOK, toOrderResp(order, items))
}

// ListMine handles GET /v1/orders: the buyer's own orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByBuyer(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list orders failed")
	}
	return c.JSON(http.StatusOK, h.toList(orders))
}

// ListForStall handles GET /v1/stalls/:id/orders for the stall owner.
func (h *OrderHandler) ListForStall(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsStall(ctx, userID, stallID) {
		return jsonError(c, http.StatusForbidden, codeForbidden, "not your stall")
	}
	orders, err := h.Orders.ListByStall(ctx, stallID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list orders failed")
	}
	return c.JSON(http.StatusOK, h.toList(orders))
}

// UpdateStatus handles PATCH /v1/orders/:id/status. The stall owner
// drives PENDING→CONFIRMED→DELIVERED and may cancel a pending order;
// the buyer may only cancel while the order is still pending. An
// impossible transition answers 409.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid order id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "status required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "order not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load order failed")
	}

	isOwner := h.ownsStall(ctx, userID, order.StallID)
	isBuyer := order.BuyerID == userID
	switch {
	case isOwner:
		// all transitions below are open to the seller
	case isBuyer && req.Status == model.OrderCancelled:
		// buyers may back out of a pending order
	default:
		return jsonError(c, http.StatusForbidden, codeForbidden, "not allowed to change this order")
	}

	if !model.CanTransition(order.Status, req.Status) {
		return jsonError(c, http.StatusConflict, codeConflict, "invalid status transition")
	}
	if err := h.Orders.UpdateStatus(ctx, orderID, order.Status, req.Status); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, codeConflict, "order changed concurrently")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "update status failed")
	}

	updated, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load order failed")
	}
	return c.JSON(http.StatusOK, toOrderResp(updated, nil))
}

func (h *OrderHandler) ownsStall(ctx context.Context, userID, stallID uint64) bool {
	stall, err := h.Stalls.GetByID(ctx, stallID)
	return err == nil && stall.OwnerID == userID
}

func (h *OrderHandler) toList(orders []*model.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o, nil))
	}
	return out
}
