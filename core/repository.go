package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStoreUnavailable wraps persistence failures. The auth core does
	// not retry; infrastructure-level policies own that.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// UserDirectory is the account lookup contract the auth core consumes.
// Email and nickname are each globally unique.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	FindUserByEmail(ctx context.Context, email string) (*User, error)

	FindUserByNickname(ctx context.Context, nickname string) (*User, error)

	CreateUser(ctx context.Context, user *User) error

	// DeleteUser removes an account and must cascade-invalidate all of
	// that user's refresh tokens.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// TokenStore holds issued refresh tokens keyed by their opaque value.
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error

	FindRefreshToken(ctx context.Context, value string) (*RefreshToken, error)

	DeleteRefreshToken(ctx context.Context, value string) error

	DeleteAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error

	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// Repository is the combined persistence contract a storage backend
// implements.
type Repository interface {
	UserDirectory
	TokenStore
}
