package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piataonline/market-api/internal/auth"
	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/service"
)

// stubVerifier accepts exactly one (provider, token) combination.
type stubVerifier struct {
	provider, token string
	sub             auth.VerifiedSubject
}

func (v *stubVerifier) Verify(ctx context.Context, provider, idToken string) (auth.VerifiedSubject, error) {
	if provider != v.provider {
		return auth.VerifiedSubject{}, auth.ErrUnsupportedProvider
	}
	if idToken != v.token {
		return auth.VerifiedSubject{}, auth.ErrInvalidCredentials
	}
	return v.sub, nil
}

// stubStore is the minimal single-user store the handler tests need.
type stubStore struct {
	user model.User
	hash string
	exp  *time.Time
}

func (s *stubStore) FindByProviderUID(ctx context.Context, provider, uid string) (model.User, error) {
	if s.user.ID == 0 {
		return model.User{}, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubStore) Create(ctx context.Context, name, email, avatarURL, provider, uid string) (model.User, error) {
	s.user = model.User{ID: 1, Name: name, Email: email, AvatarURL: avatarURL, Provider: provider, ProviderUID: uid}
	return s.user, nil
}

func (s *stubStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return s.user, nil
}

func (s *stubStore) SetRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.hash, s.exp = tokenHash, &exp
	return nil
}

func (s *stubStore) RotateRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	if s.hash != oldHash {
		return sql.ErrNoRows
	}
	s.hash, s.exp = newHash, &exp
	return nil
}

func (s *stubStore) FindByRefreshToken(ctx context.Context, tokenHash string) (uint64, *time.Time, error) {
	if s.hash == "" || s.hash != tokenHash {
		return 0, nil, sql.ErrNoRows
	}
	return s.user.ID, s.exp, nil
}

func (s *stubStore) ClearRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	if s.hash == tokenHash {
		s.hash, s.exp = "", nil
	}
	return nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	v := &stubVerifier{
		provider: auth.ProviderGoogle,
		token:    "good-token",
		sub:      auth.VerifiedSubject{Provider: auth.ProviderGoogle, UID: "g-1", Email: "ana@example.com", Name: "Ana"},
	}
	sessions := service.NewSessionService(v, &stubStore{}, "test-secret", 15, 30)
	return &AuthHandler{Sessions: sessions}
}

func doJSON(h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestLoginReturnsTokenPairAndUser(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(h.Login, `{"provider":"google","idToken":"good-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresAt    string `json:"expiresAt"`
		User         struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Len(t, resp.RefreshToken, 96)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.EqualValues(t, 1, resp.User.ID)

	// expiresAt must be RFC 3339
	_, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	assert.NoError(t, err)
}

func TestLoginErrorShapes(t *testing.T) {
	h := newAuthHandler(t)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing fields", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown provider", `{"provider":"twitter","idToken":"x"}`, http.StatusBadRequest, "UNSUPPORTED_PROVIDER"},
		{"rejected token", `{"provider":"google","idToken":"bad"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(h.Login, tc.body)
			assert.Equal(t, tc.status, rec.Code)

			var body struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(h.Login, `{"provider":"google","idToken":"good-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	body := `{"refreshToken":"` + login.RefreshToken + `"}`
	rec = doJSON(h.Refresh, body)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the consumed token must be dead now
	rec = doJSON(h.Refresh, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_OR_EXPIRED_TOKEN")
}

func TestLogoutIsIdempotent(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(h.Login, `{"provider":"google","idToken":"good-token"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	body := `{"refreshToken":"` + login.RefreshToken + `"}`
	rec = doJSON(h.Logout, body)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// revoked token cannot refresh, but logging out again still succeeds
	rec = doJSON(h.Refresh, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(h.Logout, body)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
