package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/repository"
)

// StallHandler serves seller stall management and public browsing.
// Ownership checks happen in the repository layer: an update only
// touches rows whose owner matches the authenticated user.
type StallHandler struct {
	Stalls   *repository.StallRepo
	Products *repository.ProductRepo
	Users    *repository.UserRepo
}

func NewStallHandler(s *repository.StallRepo, p *repository.ProductRepo, u *repository.UserRepo) *StallHandler {
	return &StallHandler{Stalls: s, Products: p, Users: u}
}

type stallReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
	IsActive    *bool  `json:"isActive"`
}

type stallResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func toStallResp(s *model.Stall) stallResp {
	return stallResp{
		ID: s.ID, Name: s.Name, Description: s.Description,
		Location: s.Location, ImageURL: s.ImageURL, IsActive: s.IsActive,
	}
}

// Create handles POST /v1/stalls. One stall per seller; a second
// create answers 409. On success the user row is linked to the stall.
func (h *StallHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	var req stallReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "name required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stall := &model.Stall{
		OwnerID:     userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	if err := h.Stalls.Create(ctx, stall); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, codeConflict, "user already owns a stall")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "create stall failed")
	}
	if err := h.Users.SetStallID(ctx, userID, stall.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "link stall failed")
	}
	return c.JSON(http.StatusCreated, toStallResp(stall))
}

// Update handles PUT /v1/stalls/:id for the stall owner.
func (h *StallHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}
	var req stallReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "name required")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Stalls.Update(ctx, stallID, userID, strings.TrimSpace(req.Name), req.Description, req.Location, req.ImageURL, active)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "update stall failed")
	}
	stall, err := h.Stalls.GetByID(ctx, stallID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}
	return c.JSON(http.StatusOK, toStallResp(stall))
}

// Mine handles GET /v1/stalls/mine for the seller dashboard.
func (h *StallHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stall, err := h.Stalls.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "no stall for this user")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}
	return c.JSON(http.StatusOK, toStallResp(stall))
}

// List handles GET /v1/stalls: all active stalls for public browsing.
func (h *StallHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stalls, err := h.Stalls.ListActive(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list stalls failed")
	}
	out := make([]stallResp, 0, len(stalls))
	for _, s := range stalls {
		out = append(out, toStallResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/stalls/:id.
func (h *StallHandler) Get(c echo.Context) error {
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stall, err := h.Stalls.GetByID(ctx, stallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}
	return c.JSON(http.StatusOK, toStallResp(stall))
}

// Products handles GET /v1/stalls/:id/products: the stall's catalog.
func (h *StallHandler) ListProducts(c echo.Context) error {
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.ListByStall(ctx, stallID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list products failed")
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, out)
}
