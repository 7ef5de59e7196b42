package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piataonline/market-api/internal/auth"
	"github.com/piataonline/market-api/internal/model"
)

// fakeVerifier returns a canned subject for one specific token and
// rejects everything else like a real provider would.
type fakeVerifier struct {
	token   string
	subject auth.VerifiedSubject
}

func (f *fakeVerifier) Verify(ctx context.Context, provider, idToken string) (auth.VerifiedSubject, error) {
	if provider != auth.ProviderGoogle && provider != auth.ProviderFacebook {
		return auth.VerifiedSubject{}, auth.ErrUnsupportedProvider
	}
	if idToken != f.token {
		return auth.VerifiedSubject{}, auth.ErrInvalidCredentials
	}
	return f.subject, nil
}

// memoryStore is an in-memory UserStore. The refresh-token fields
// behave like the users-table columns, including the compare-and-
// replace semantics of RotateRefreshToken.
type memoryStore struct {
	nextID uint64
	users  map[uint64]*model.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, users: map[uint64]*model.User{}}
}

func (m *memoryStore) FindByProviderUID(ctx context.Context, provider, uid string) (model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderUID == uid {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memoryStore) Create(ctx context.Context, name, email, avatarURL, provider, uid string) (model.User, error) {
	u := &model.User{
		ID: m.nextID, Name: name, Email: email, AvatarURL: avatarURL,
		Provider: provider, ProviderUID: uid,
	}
	m.users[u.ID] = u
	m.nextID++
	return *u, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return *u, nil
}

func (m *memoryStore) SetRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshTokenHash = tokenHash
	u.RefreshExpiresAt = &exp
	return nil
}

func (m *memoryStore) RotateRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	u, ok := m.users[userID]
	if !ok || u.RefreshTokenHash != oldHash {
		return sql.ErrNoRows
	}
	u.RefreshTokenHash = newHash
	u.RefreshExpiresAt = &exp
	return nil
}

func (m *memoryStore) FindByRefreshToken(ctx context.Context, tokenHash string) (uint64, *time.Time, error) {
	for _, u := range m.users {
		if u.RefreshTokenHash != "" && u.RefreshTokenHash == tokenHash {
			return u.ID, u.RefreshExpiresAt, nil
		}
	}
	return 0, nil, sql.ErrNoRows
}

func (m *memoryStore) ClearRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	for _, u := range m.users {
		if u.RefreshTokenHash == tokenHash {
			u.RefreshTokenHash = ""
			u.RefreshExpiresAt = nil
		}
	}
	return nil
}

func newTestService(store *memoryStore) *SessionService {
	v := &fakeVerifier{
		token: "good-token",
		subject: auth.VerifiedSubject{
			Provider: auth.ProviderGoogle, UID: "uid-1",
			Email: "ana@example.com", Name: "Ana", AvatarURL: "https://img/a.png",
		},
	}
	return NewSessionService(v, store, "test-secret", 30, 14)
}

func TestLoginCreatesUserAndIssuesPair(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	before := time.Now()
	u, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "google", u.Provider)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 96) // 48 random bytes, hex encoded
	// expiresAt reflects the configured 30 minute access TTL.
	assert.WithinDuration(t, before.Add(30*time.Minute), pair.ExpiresAt, 5*time.Second)
	assert.Len(t, store.users, 1)
}

func TestLoginSecondTimeReusesUser(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	u1, _, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	// The user edits their profile; a later login must not revert it.
	store.users[u1.ID].Name = "Ana Maria"

	u2, _, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Ana Maria", u2.Name)
	assert.Len(t, store.users, 1)
}

func TestLoginRejectsUnsupportedProviderAndBadToken(t *testing.T) {
	svc := newTestService(newMemoryStore())
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "github", "good-token")
	assert.ErrorIs(t, err, auth.ErrUnsupportedProvider)

	_, _, err = svc.Login(ctx, "google", "forged")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	u, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestAccessTokenCarriesAdminFlag(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	u, _, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)
	store.users[u.ID].IsAdmin = true

	pair, err := svc.Refresh(ctx, mustRefresh(t, svc, store, u.ID))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

// mustRefresh issues a fresh pair directly and returns the raw
// refresh token, so tests can exercise Refresh without tracking the
// value from the original login.
func mustRefresh(t *testing.T, svc *SessionService, store *memoryStore, userID uint64) string {
	t.Helper()
	u, err := store.GetByID(context.Background(), userID)
	require.NoError(t, err)
	pair, err := svc.issuePair(context.Background(), u)
	require.NoError(t, err)
	return pair.RefreshToken
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The rotated-away token is dead immediately.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	// The new one still works.
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshFailsAfterExpiry(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	// Jump the service clock past the 14 day refresh TTL. The stored
	// hash still matches, only the expiry check can reject it.
	svc.WithClock(func() time.Time { return time.Now().Add(15 * 24 * time.Hour) })

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestRefreshUnknownTokenFails(t *testing.T) {
	svc := newTestService(newMemoryStore())
	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestIssuingNewPairInvalidatesPreviousRefresh(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	// Second login overwrites the stored hash (single active session).
	_, second, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	// Second revoke of the now-cleared value is a quiet no-op.
	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestValidateAccessTokenRejectsExpiredAndGarbage(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "google", "good-token")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	svc.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
