package core

import (
	"time"

	"github.com/google/uuid"
)

// TokenType distinguishes the kinds of tokens the token store may hold
type TokenType string

const (
	TokenTypeRefresh TokenType = "REFRESH_TOKEN"
)

// User represents a registered account as stored by the user directory.
// PasswordHash is the bcrypt digest; the plaintext is never stored.
type User struct {
	ID            uuid.UUID
	Nickname      string
	Email         string
	PasswordHash  string
	FullName      *string
	AvatarURL     *string
	Bio           *string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the projection of a User that is safe to return to
// clients. It never carries the password hash.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Nickname      string    `json:"nickname"`
	Email         string    `json:"email"`
	FullName      *string   `json:"full_name"`
	AvatarURL     *string   `json:"avatar_url"`
	Bio           *string   `json:"bio"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Nickname:      u.Nickname,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// RefreshToken represents a persisted session token. Token is the opaque
// random value the client holds; it is the lookup key and the sole
// secret protecting the session.
type RefreshToken struct {
	Token     string
	Type      TokenType
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry. Comparisons use
// the server clock in UTC; client-supplied clocks are never trusted.
func (t *RefreshToken) Expired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}
