// Package service implements the session lifecycle: exchanging a
// third-party identity token for an access/refresh pair, rotating
// refresh tokens on use, and revoking them on logout.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/piataonline/market-api/internal/auth"
	"github.com/piataonline/market-api/internal/model"
	"github.com/piataonline/market-api/internal/utils"
)

// ErrInvalidOrExpiredToken is returned when a presented token does
// not match a stored one, has expired, or fails signature checks.
// Handlers translate this into HTTP 401.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// UserStore is the persistence surface the session service needs.
// *repository.UserRepo satisfies it; tests provide in-memory fakes.
type UserStore interface {
	FindByProviderUID(ctx context.Context, provider, uid string) (model.User, error)
	Create(ctx context.Context, name, email, avatarURL, provider, uid string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	RotateRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	FindByRefreshToken(ctx context.Context, tokenHash string) (uint64, *time.Time, error)
	ClearRefreshTokenByHash(ctx context.Context, tokenHash string) error
}

// TokenPair is what a successful login or refresh hands back. The
// ExpiresAt field is the access token's expiry; the refresh token's
// own lifetime is internal to the service.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Claims is the decoded content of a validated access token.
type Claims struct {
	UserID  uint64
	IsAdmin bool
}

// SessionService wires the identity verifier, the user store and the
// token configuration together. The now field exists so tests can
// pin the clock; it defaults to time.Now.
type SessionService struct {
	verifier       auth.IdentityVerifier
	users          UserStore
	secret         string
	accessTTLMin   int
	refreshTTLDays int
	now            func() time.Time
}

func NewSessionService(v auth.IdentityVerifier, users UserStore, secret string, accessTTLMin, refreshTTLDays int) *SessionService {
	return &SessionService{
		verifier:       v,
		users:          users,
		secret:         secret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		now:            time.Now,
	}
}

// WithClock replaces the service clock. Test hook.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Login verifies a third-party identity token, finds or creates the
// matching user, and issues a fresh token pair. A user is created
// from the verified profile only on first login for a (provider, uid)
// pair; an existing profile is left untouched so user edits survive.
// Verifier errors (ErrUnsupportedProvider, ErrInvalidCredentials) and
// store errors pass through unwrapped.
func (s *SessionService) Login(ctx context.Context, provider, idToken string) (model.User, TokenPair, error) {
	sub, err := s.verifier.Verify(ctx, provider, idToken)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	u, err := s.users.FindByProviderUID(ctx, sub.Provider, sub.UID)
	if errors.Is(err, sql.ErrNoRows) {
		u, err = s.users.Create(ctx, sub.Name, sub.Email, sub.AvatarURL, sub.Provider, sub.UID)
		if err != nil {
			// A concurrent first login may have won the unique-index
			// race; the stored row is then the one to use.
			u, err = s.users.FindByProviderUID(ctx, sub.Provider, sub.UID)
		}
	}
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// issuePair mints an access token and a new refresh token and stores
// the refresh token's hash on the user row, which invalidates any
// previously issued refresh token for that user.
func (s *SessionService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret, u.ID, u.IsAdmin, s.accessTTLMin, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshTTLDays, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Raw, ExpiresAt: access.Exp}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented
// token is single-use: on success the stored hash is swapped for a
// new one in a compare-and-replace, so presenting the same value
// again (or racing a concurrent refresh) fails with
// ErrInvalidOrExpiredToken.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	oldHash := utils.HashRefreshRaw(rawRefresh)

	userID, exp, err := s.users.FindByRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrInvalidOrExpiredToken
		}
		return TokenPair{}, err
	}
	if exp == nil || s.now().After(*exp) {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := utils.NewAccessToken(s.secret, u.ID, u.IsAdmin, s.accessTTLMin, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	next, err := utils.NewRefreshToken(s.refreshTTLDays, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.RotateRefreshToken(ctx, u.ID, oldHash, utils.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrInvalidOrExpiredToken
		}
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: next.Raw, ExpiresAt: access.Exp}, nil
}

// Revoke clears the stored refresh token matching the presented
// value. Revoking a token that matches nothing is a no-op, so logout
// is idempotent.
func (s *SessionService) Revoke(ctx context.Context, rawRefresh string) error {
	return s.users.ClearRefreshTokenByHash(ctx, utils.HashRefreshRaw(rawRefresh))
}

// ValidateAccessToken checks signature and expiry of an access token
// and returns the claims it carries. No storage lookup happens here:
// validity is purely a function of the signature and the exp claim.
func (s *SessionService) ValidateAccessToken(token string) (Claims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidOrExpiredToken
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidOrExpiredToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidOrExpiredToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return Claims{}, ErrInvalidOrExpiredToken
	}
	adm, _ := claims["adm"].(bool)
	return Claims{UserID: uint64(sub), IsAdmin: adm}, nil
}
