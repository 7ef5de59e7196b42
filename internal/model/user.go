package model

import "time"

// User represents an application user record as stored in the
// `users` table. Accounts are created on the first successful
// third-party login; there is no password column because identity
// verification is delegated entirely to the OAuth provider. The
// (provider, provider_uid) pair is unique and is the lookup key for
// login. Refresh-token state lives on the user row: a single active
// token per user, stored as a SHA-256 hex digest together with its
// expiry. Overwriting these columns invalidates the previous token.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Name             – display name from the provider profile.
//  Email            – unique email address.
//  Location         – optional free-form location string.
//  IsAdmin          – whether the user may access the back office.
//  StallID          – id of the stall owned by this user (0 = none).
//  AvatarURL        – optional profile picture URL.
//  Provider         – identity provider name ("google" or "facebook").
//  ProviderUID      – subject identifier issued by the provider.
//  RefreshTokenHash – SHA-256 hex of the active refresh token ("" = none).
//  RefreshExpiresAt – expiry of the active refresh token (nil = none).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64     // users.id
	Name             string     // users.name
	Email            string     // users.email
	Location         string     // users.location
	IsAdmin          bool       // users.is_admin
	StallID          uint64     // users.stall_id (0 when the user owns no stall)
	AvatarURL        string     // users.avatar_url
	Provider         string     // users.provider
	ProviderUID      string     // users.provider_uid
	RefreshTokenHash string     // users.refresh_token_hash
	RefreshExpiresAt *time.Time // users.refresh_expires_at (nullable)
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}
