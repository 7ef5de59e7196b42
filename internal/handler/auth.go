package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piataonline/market-api/internal/auth"
	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/repository"
	"github.com/piataonline/market-api/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Sessions *service.SessionService
	Users    *repository.UserRepo
}

func NewAuthHandler(s *service.SessionService, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Sessions: s, Users: u}
}

// ----- DTOs -----

type loginReq struct {
	Provider string `json:"provider"`
	IDToken  string `json:"idToken"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Location  string `json:"location,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
	StallID   uint64 `json:"stallId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type tokenResp struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"` // serialized as RFC 3339 / ISO-8601
	User         *userPart `json:"user,omitempty"`
}

func toUserPart(u model.User) *userPart {
	return &userPart{
		ID: u.ID, Name: u.Name, Email: u.Email, Location: u.Location,
		IsAdmin: u.IsAdmin, StallID: u.StallID, AvatarURL: u.AvatarURL,
	}
}

// Login: exchange a third-party identity token for an access/refresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "invalid body")
	}
	req.IDToken = strings.TrimSpace(req.IDToken)
	if req.Provider == "" || req.IDToken == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "provider/idToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.Provider, req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrUnsupportedProvider) {
			return jsonError(c, http.StatusBadRequest, codeUnsupportedProvider, "unsupported identity provider")
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return jsonError(c, http.StatusUnauthorized, codeInvalidCredentials, "identity provider rejected the token")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "login failed")
	}

	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         toUserPart(u),
	})
}

// Refresh: exchange a refresh token for a new pair.  The presented
// token is consumed by the rotation; the reply carries its successor.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "refreshToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "invalid or expired refresh token")
		}
		return jsonError(c, http.StatusInternalServerError, codeInternal, "refresh failed")
	}

	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// Logout: revoke the presented refresh token.  Revocation is
// idempotent, so an already-dead token still gets a 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "refreshToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: return the authenticated user's profile (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load user failed")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// UpdateMe: edit the user-owned profile fields (protected).  Provider
// logins never overwrite these afterwards.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, codeInvalidToken, "unauthorized")
	}

	var req struct {
		Name      string `json:"name"`
		Location  string `json:"location"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return jsonError(c, http.StatusBadRequest, codeBadRequest, "name required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, strings.TrimSpace(req.Name), req.Location, req.AvatarURL); err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "update failed")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, codeInternal, "load user failed")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
