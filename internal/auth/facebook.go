package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const facebookGraphURL = "https://graph.facebook.com/v19.0/me"

// FacebookVerifier validates Facebook access tokens by asking the
// Graph API for the profile the token belongs to. A token Facebook
// does not accept yields an error payload instead of a profile.
type FacebookVerifier struct {
	HTTP     *http.Client // optional; defaults to a 10s-timeout client
	Endpoint string       // optional override, used by tests
}

func (f *FacebookVerifier) client() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Verify fetches id, name, email and picture for the token's owner.
func (f *FacebookVerifier) Verify(ctx context.Context, provider, idToken string) (VerifiedSubject, error) {
	endpoint := f.Endpoint
	if endpoint == "" {
		endpoint = facebookGraphURL
	}
	q := url.Values{}
	q.Set("fields", "id,name,email,picture.type(large)")
	q.Set("access_token", idToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return VerifiedSubject{}, err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return VerifiedSubject{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return VerifiedSubject{}, ErrInvalidCredentials
	}

	var profile struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return VerifiedSubject{}, err
	}
	if profile.ID == "" || profile.Email == "" {
		return VerifiedSubject{}, ErrInvalidCredentials
	}

	return VerifiedSubject{
		Provider:  ProviderFacebook,
		UID:       profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: profile.Picture.Data.URL,
	}, nil
}
