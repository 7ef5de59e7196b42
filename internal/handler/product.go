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

// ProductHandler serves product CRUD for sellers and product lookup
// for buyers. The catalog snapshot a buyer's cart keeps (id, name,
// price, stall, image) comes from these responses.
type ProductHandler struct {
	Products *repository.ProductRepo
	Stalls   *repository.StallRepo
}

func NewProductHandler(p *repository.ProductRepo, s *repository.StallRepo) *ProductHandler {
	return &ProductHandler{Products: p, Stalls: s}
}

type productReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  uint32 `json:"priceCents"`
	Unit        string `json:"unit"`
	Stock       uint32 `json:"stock"`
	ImageURL    string `json:"imageUrl"`
	IsActive    *bool  `json:"isActive"`
}

type productResp struct {
	ID          uint64 `json:"id"`
	StallID     uint64 `json:"stallId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  uint32 `json:"priceCents"`
	Unit        string `json:"unit,omitempty"`
	Stock       uint32 `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func toProductResp(p *model.Product) productResp {
	return productResp{
		ID: p.ID, StallID: p.StallID, Name: p.Name, Description: p.Description,
		PriceCents: p.PriceCents, Unit: p.Unit, Stock: p.Stock,
		ImageURL: p.ImageURL, IsActive: p.IsActive,
	}
}

// Create handles POST /v1/products. The product is listed under the
// authenticated seller's own stall; a user without a stall gets 403.
func (h *ProductHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	var req productReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" || req.PriceCents == 0 {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "name and priceCents required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stall, err := h.Stalls.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusForbidden, codeForbidden, "user owns no stall")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}

	p := &model.Product{
		StallID:     stall.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Unit:        req.Unit,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "create product failed")
	}
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// Update handles PUT /v1/products/:id for the listing stall's owner.
func (h *ProductHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid product id")
	}
	var req productReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" || req.PriceCents == 0 {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "name and priceCents required")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Unit:        req.Unit,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    active,
	}
	if err := h.Products.Update(ctx, productID, userID, p); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "update product failed")
	}
	got, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load product failed")
	}
	return c.JSON(http.StatusOK, toProductResp(got))
}

// Delete handles DELETE /v1/products/:id for the listing stall's owner.
func (h *ProductHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid product id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, productID, userID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "delete product failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/products/:id (public).
func (h *ProductHandler) Get(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid product id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load product failed")
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}
