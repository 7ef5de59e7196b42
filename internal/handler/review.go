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

// ReviewHandler lets buyers rate stalls and everyone read the ratings.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Stalls  *repository.StallRepo
}

func NewReviewHandler(r *repository.ReviewRepo, s *repository.StallRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Stalls: s}
}

type reviewResp struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	Rating    uint8     `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create handles POST /v1/stalls/:id/reviews. One review per buyer
// per stall; a second attempt answers 409.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}
	var req struct {
		Rating  uint8  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "rating must be 1..5")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Stalls.GetByID(ctx, stallID); err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}

	rv := &model.Review{
		UserID:  userID,
		StallID: stallID,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, codeConflict, "stall already reviewed")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "create review failed")
	}
	return c.JSON(http.StatusCreated, reviewResp{
		ID: rv.ID, UserID: rv.UserID, Rating: rv.Rating, Comment: rv.Comment, CreatedAt: rv.CreatedAt,
	})
}

// List handles GET /v1/stalls/:id/reviews (public).
func (h *ReviewHandler) List(c echo.Context) error {
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviews, err := h.Reviews.ListByStall(ctx, stallID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list reviews failed")
	}
	out := make([]reviewResp, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, reviewResp{
			ID: rv.ID, UserID: rv.UserID, Rating: rv.Rating, Comment: rv.Comment, CreatedAt: rv.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
