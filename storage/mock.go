package storage

import (
	"context"
	"sync"
	"time"

	"courseforge/core"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Test fixtures. AlicePassword and BobPassword are the plaintexts the
// stored hashes were derived from.
const (
	AlicePassword = "secret123"
	BobPassword   = "hunter2hunter2"
)

func testHash(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func strPtr(s string) *string { return &s }

var (
	UserAlice = &core.User{
		ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Nickname:      "alice",
		Email:         "alice@example.com",
		PasswordHash:  testHash(AlicePassword),
		FullName:      strPtr("Alice Anders"),
		EmailVerified: true,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	UserBob = &core.User{
		ID:           uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Nickname:     "bob",
		Email:        "bob@example.com",
		PasswordHash: testHash(BobPassword),
		CreatedAt:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	AllUsers = []*core.User{UserAlice, UserBob}
)

var (
	TokenAlice = &core.RefreshToken{
		Token:     "alice_refresh_token_value",
		Type:      core.TokenTypeRefresh,
		UserID:    UserAlice.ID,
		CreatedAt: time.Now().Add(-24 * time.Hour),
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}

	// Second live session for the same user (multi-device).
	TokenAliceDevice2 = &core.RefreshToken{
		Token:     "alice_refresh_token_device2",
		Type:      core.TokenTypeRefresh,
		UserID:    UserAlice.ID,
		CreatedAt: time.Now().Add(-12 * time.Hour),
		ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
	}

	TokenExpired = &core.RefreshToken{
		Token:     "bob_expired_refresh_token",
		Type:      core.TokenTypeRefresh,
		UserID:    UserBob.ID,
		CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2023, 1, 31, 23, 59, 59, 0, time.UTC),
	}

	AllTokens = []*core.RefreshToken{TokenAlice, TokenAliceDevice2, TokenExpired}
)

// MockRepository is an in-memory Repository pre-seeded with the fixtures
// above. Safe for concurrent use.
type MockRepository struct {
	mu            sync.Mutex
	usersByID     map[uuid.UUID]*core.User
	usersByEmail  map[string]*core.User
	usersByNick   map[string]*core.User
	refreshTokens map[string]*core.RefreshToken

	// Track method calls for verification
	CreateUserCalls         int
	CreateRefreshTokenCalls int
	FindRefreshTokenCalls   int
}

func NewMockRepository() *MockRepository {
	repo := &MockRepository{
		usersByID:     make(map[uuid.UUID]*core.User),
		usersByEmail:  make(map[string]*core.User),
		usersByNick:   make(map[string]*core.User),
		refreshTokens: make(map[string]*core.RefreshToken),
	}

	for _, user := range AllUsers {
		repo.index(user)
	}

	for _, token := range AllTokens {
		copied := *token
		repo.refreshTokens[token.Token] = &copied
	}

	return repo
}

func (m *MockRepository) index(user *core.User) {
	copied := *user
	m.usersByID[user.ID] = &copied
	m.usersByEmail[user.Email] = &copied
	m.usersByNick[user.Nickname] = &copied
}

func (m *MockRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return user, nil
}

func (m *MockRepository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return user, nil
}

func (m *MockRepository) FindUserByNickname(ctx context.Context, nickname string) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByNick[nickname]
	if !ok {
		return nil, core.ErrNotFound
	}
	return user, nil
}

func (m *MockRepository) CreateUser(ctx context.Context, user *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateUserCalls++

	if _, exists := m.usersByEmail[user.Email]; exists {
		return core.ErrAlreadyExists
	}
	if _, exists := m.usersByNick[user.Nickname]; exists {
		return core.ErrAlreadyExists
	}

	m.index(user)
	return nil
}

func (m *MockRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByID[id]
	if !ok {
		return core.ErrNotFound
	}

	delete(m.usersByID, id)
	delete(m.usersByEmail, user.Email)
	delete(m.usersByNick, user.Nickname)

	// Cascade, same as the relational stores.
	for value, token := range m.refreshTokens {
		if token.UserID == id {
			delete(m.refreshTokens, value)
		}
	}

	return nil
}

func (m *MockRepository) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateRefreshTokenCalls++

	if _, exists := m.refreshTokens[token.Token]; exists {
		return core.ErrAlreadyExists
	}

	copied := *token
	m.refreshTokens[token.Token] = &copied
	return nil
}

func (m *MockRepository) FindRefreshToken(ctx context.Context, value string) (*core.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindRefreshTokenCalls++

	token, ok := m.refreshTokens[value]
	if !ok {
		return nil, core.ErrNotFound
	}
	return token, nil
}

func (m *MockRepository) DeleteRefreshToken(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.refreshTokens[value]; !ok {
		return core.ErrNotFound
	}
	delete(m.refreshTokens, value)
	return nil
}

func (m *MockRepository) DeleteAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for value, token := range m.refreshTokens {
		if token.UserID == userID {
			delete(m.refreshTokens, value)
		}
	}
	return nil
}

func (m *MockRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var count int64

	for value, token := range m.refreshTokens {
		if now.After(token.ExpiresAt) {
			delete(m.refreshTokens, value)
			count++
		}
	}

	return count, nil
}
