package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password. Callers must not be able to tell which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmailTaken    = errors.New("email already in use")
	ErrNicknameTaken = errors.New("nickname already in use")
	ErrValidation    = errors.New("missing required field")
)

type LoginResult struct {
	User        *PublicUser `json:"user"`
	AccessToken string      `json:"accessToken"`
}

type RegisterRequest struct {
	Nickname string
	Email    string
	Password string
	FullName *string
}

type AuthService struct {
	repo   Repository
	config *Config
}

func NewAuthService(repo Repository, config *Config) *AuthService {
	return &AuthService{
		repo:   repo,
		config: config,
	}
}

// Register creates a new account. Email and nickname are checked against
// the directory first so the caller can report which field conflicted.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*PublicUser, error) {
	if req.Nickname == "" || req.Email == "" || req.Password == "" {
		return nil, ErrValidation
	}

	_, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to check email: %w", ErrStoreUnavailable, err)
	}

	_, err = s.repo.FindUserByNickname(ctx, req.Nickname)
	if err == nil {
		return nil, ErrNicknameTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to check nickname: %w", ErrStoreUnavailable, err)
	}

	passwordHash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		ID:            uuid.New(),
		Nickname:      req.Nickname,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		FullName:      req.FullName,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent registration. Re-check the
			// directory to report the field that actually conflicted.
			if _, lookupErr := s.repo.FindUserByEmail(ctx, req.Email); lookupErr == nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrNicknameTaken
		}
		return nil, fmt.Errorf("%w: failed to create user: %w", ErrStoreUnavailable, err)
	}

	return user.Public(), nil
}

// Login verifies credentials and mints an access token. The refresh
// token is issued separately; the transport layer attaches both.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to find user: %w", ErrStoreUnavailable, err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := GenerateAccessToken(user, s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &LoginResult{
		User:        user.Public(),
		AccessToken: accessToken,
	}, nil
}

// IssueRefreshToken creates and persists a refresh token for a user.
// Concurrent logins produce independent tokens (multi-device sessions).
func (s *AuthService) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	value, err := GenerateRefreshTokenValue()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	token := &RefreshToken{
		Token:     value,
		Type:      TokenTypeRefresh,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(s.config.RefreshTokenDuration) * time.Second),
	}

	if err := s.repo.CreateRefreshToken(ctx, token); err != nil {
		return "", fmt.Errorf("%w: failed to create refresh token: %w", ErrStoreUnavailable, err)
	}

	return value, nil
}

// Refresh mints a new access token from a stored refresh token. The
// refresh token itself is not rotated; it stays valid until its own
// expiry or an explicit logout.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenValue string) (string, error) {
	token, err := s.repo.FindRefreshToken(ctx, refreshTokenValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("%w: failed to find refresh token: %w", ErrStoreUnavailable, err)
	}

	if token.Type != TokenTypeRefresh {
		return "", ErrInvalidToken
	}

	if token.Expired() {
		_ = s.repo.DeleteRefreshToken(ctx, refreshTokenValue)
		return "", ErrExpiredToken
	}

	// Claims come from the owner's current directory record, not from
	// whatever was true at login time.
	user, err := s.repo.FindUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("%w: failed to find token owner: %w", ErrStoreUnavailable, err)
	}

	accessToken, err := GenerateAccessToken(user, s.config)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout deletes the refresh token record. A token that is already gone
// is not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshTokenValue string) error {
	if err := s.repo.DeleteRefreshToken(ctx, refreshTokenValue); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: failed to delete refresh token: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// LogoutAll ends every session belonging to a user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteAllUserRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("%w: failed to delete user refresh tokens: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// VerifyAccess checks an access token's signature and expiry. Pure
// computation, no store lookup, so it can run on every request.
func (s *AuthService) VerifyAccess(accessTokenValue string) (*Claims, error) {
	return ValidateAccessToken(accessTokenValue, s.config)
}

// GetProfile returns the public projection of a user record.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*PublicUser, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find user: %w", ErrStoreUnavailable, err)
	}
	return user.Public(), nil
}
