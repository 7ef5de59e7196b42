package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/repository"
)

// MessageHandler serves the buyer↔seller conversations attached to a
// stall. A thread is (stall, buyer); the seller reads it through the
// optional buyerId query parameter, the buyer always reads their own.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Stalls   *repository.StallRepo
}

func NewMessageHandler(m *repository.MessageRepo, s *repository.StallRepo) *MessageHandler {
	return &MessageHandler{Messages: m, Stalls: s}
}

type messageResp struct {
	ID        uint64    `json:"id"`
	SenderID  uint64    `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create handles POST /v1/stalls/:id/messages. A buyer posts into
// their own thread; the stall owner replies by naming the thread's
// buyer in the body.
func (h *MessageHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}
	stallID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid stall id")
	}
	var req struct {
		Body    string `json:"body"`
		BuyerID uint64 `json:"buyerId"` // only honored for the stall owner
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "body required")
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

	buyerID := userID
	if stall.OwnerID == userID {
		if req.BuyerID == 0 {
			return jsonError(c, http.StatusBadRequest, codeBadRequest, "buyerId required for seller replies")
		}
		buyerID = req.BuyerID
	}

	m := &model.Message{
		StallID:  stallID,
		BuyerID:  buyerID,
		SenderID: userID,
		Body:     strings.TrimSpace(req.Body),
	}
	if err := h.Messages.Create(ctx, m); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "send message failed")
	}
	return c.JSON(http.StatusCreated, messageResp{
		ID: m.ID, SenderID: m.SenderID, Body: m.Body, CreatedAt: m.CreatedAt,
	})
}

// ListThread handles GET /v1/stalls/:id/messages. Buyers get their
// own thread; the stall owner picks one with ?buyerId=.
func (h *MessageHandler) ListThread(c echo.Context) error {
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

	stall, err := h.Stalls.GetByID(ctx, stallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}

	buyerID := userID
	if stall.OwnerID == userID {
		qp := c.QueryParam("buyerId")
		parsed, err := strconv.ParseUint(qp, 10, 64)
		if err != nil || parsed == 0 {
			return jsonError(c, http.StatusBadRequest, codeBadRequest, "buyerId query parameter required")
		}
		buyerID = parsed
	}

	msgs, err := h.Messages.ListThread(ctx, stallID, buyerID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list messages failed")
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResp{ID: m.ID, SenderID: m.SenderID, Body: m.Body, CreatedAt: m.CreatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

// ListThreads handles GET /v1/stalls/:id/messages/threads for the
// stall owner: the buyers with an open conversation.
func (h *MessageHandler) ListThreads(c echo.Context) error {
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

	stall, err := h.Stalls.GetByID(ctx, stallID)
	if err != nil {
		if errors.Is(err, repository.ErrStallNotFound) {
			return jsonError(c, http.StatusNotFound, codeNotFound, "stall not found")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load stall failed")
	}
	if stall.OwnerID != userID {
		return jsonError(c, http.StatusForbidden, codeForbidden, "not your stall")
	}

	buyers, err := h.Messages.ListBuyersForStall(ctx, stallID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "list threads failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"buyerIds": buyers})
}
