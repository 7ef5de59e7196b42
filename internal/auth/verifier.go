// Package auth verifies third-party identity tokens. The session
// service never talks to a provider directly; it depends on the
// IdentityVerifier interface so tests can substitute fakes and so new
// providers can be added without touching the token lifecycle.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Recognized provider names. Any other value is rejected with
// ErrUnsupportedProvider before any network call is made.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// ErrUnsupportedProvider is returned when the named provider is not
// one of the recognized values. Handlers translate this into HTTP 400.
var ErrUnsupportedProvider = errors.New("unsupported identity provider")

// ErrInvalidCredentials is returned when the provider rejected the
// presented token. Handlers translate this into HTTP 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// VerifiedSubject is the identity a provider attests to after a
// successful token verification.
type VerifiedSubject struct {
	Provider  string // provider that verified the token
	UID       string // subject identifier, unique within the provider
	Email     string // verified email address
	Name      string // display name from the provider profile
	AvatarURL string // profile picture URL, may be empty
}

// IdentityVerifier checks a third-party identity token and returns
// the subject it belongs to. Implementations must return
// ErrInvalidCredentials when the provider rejects the token and pass
// transport failures through unwrapped.
type IdentityVerifier interface {
	Verify(ctx context.Context, provider, idToken string) (VerifiedSubject, error)
}

// MultiVerifier dispatches verification to a per-provider verifier.
// Unknown providers fail fast with ErrUnsupportedProvider.
type MultiVerifier struct {
	Google   IdentityVerifier
	Facebook IdentityVerifier
}

// Verify routes the call to the verifier registered for the provider.
func (m *MultiVerifier) Verify(ctx context.Context, provider, idToken string) (VerifiedSubject, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderGoogle:
		if m.Google == nil {
			return VerifiedSubject{}, ErrUnsupportedProvider
		}
		return m.Google.Verify(ctx, ProviderGoogle, idToken)
	case ProviderFacebook:
		if m.Facebook == nil {
			return VerifiedSubject{}, ErrUnsupportedProvider
		}
		return m.Facebook.Verify(ctx, ProviderFacebook, idToken)
	}
	return VerifiedSubject{}, ErrUnsupportedProvider
}
