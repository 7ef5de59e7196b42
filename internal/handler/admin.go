package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piataonline/market-api/internal/repository"
)

// AdminHandler serves the back office. Routes using it must be
// wrapped in middleware.RequireAdmin.
type AdminHandler struct {
	Users  *repository.UserRepo
	Orders *repository.OrderRepo
}

func NewAdminHandler(u *repository.UserRepo, o *repository.OrderRepo) *AdminHandler {
	return &AdminHandler{Users: u, Orders: o}
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list users failed")
	}
	out := make([]*userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, out)
}

// ListOrders handles GET /v1/admin/orders.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list orders failed")
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o, nil))
	}
	return c.JSON(http.StatusOK, out)
}
