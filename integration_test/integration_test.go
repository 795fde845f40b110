package integration_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"courseforge/core"
	"courseforge/storage"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IntegrationTestSuite struct {
	suite.Suite
	repo       *storage.SQLiteRepository
	httpServer *httptest.Server
	client     *http.Client
	baseURL    string
}

func (s *IntegrationTestSuite) SetupTest() {
	config := &core.Config{
		JWTSecret:            "test-secret-key-for-integration-tests",
		AccessTokenDuration:  1800,
		RefreshTokenDuration: 2592000,
		BcryptCost:           4,
	}

	repo, err := storage.NewSQLiteRepository(":memory:")
	s.Require().NoError(err)
	s.repo = repo

	authService := core.NewAuthService(repo, config)
	server := core.NewServer(authService, config, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", server.HandleLogin)
	mux.HandleFunc("/auth/register", server.HandleRegister)
	mux.HandleFunc("/auth/refresh", server.HandleRefresh)
	mux.HandleFunc("/auth/logout", server.HandleLogout)
	mux.HandleFunc("/auth/logout-all", server.RequireAuth(server.HandleLogoutAll))
	mux.HandleFunc("/user/profile", server.RequireAuth(server.HandleProfile))
	mux.HandleFunc("/health", server.HandleHealth)

	s.httpServer = httptest.NewServer(mux)
	s.baseURL = s.httpServer.URL

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (s *IntegrationTestSuite) TearDownTest() {
	s.httpServer.Close()
	s.repo.Close()
}

func (s *IntegrationTestSuite) TestFullSessionLifecycle() {
	// Register.
	resp, err := register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var regResp RegisterResponse
	s.Require().NoError(decode(resp, &regResp))
	s.True(regResp.Success)
	s.Equal("alice", regResp.User.Nickname)

	// Login; the returned user matches the registered record.
	resp, err = login(s.client, s.baseURL, "a@x.com", "secret123")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var loginResp LoginResponse
	s.Require().NoError(decode(resp, &loginResp))
	s.Equal(regResp.User.ID, loginResp.User.ID)
	s.NotEmpty(loginResp.AccessToken)

	// Profile via the session cookie.
	resp, err = getProfile(s.client, s.baseURL)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var profile core.PublicUser
	s.Require().NoError(decode(resp, &profile))
	s.Equal("alice", profile.Nickname)

	// Logout ends the session.
	resp, err = logout(s.client, s.baseURL)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = getProfile(s.client, s.baseURL)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestRegisterConflict() {
	resp, err := register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The second registration reports the conflicting field, not a 500.
	resp, err = register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var regResp RegisterResponse
	s.Require().NoError(decode(resp, &regResp))
	s.Contains(regResp.Error, "email")
}

func (s *IntegrationTestSuite) TestRefreshFlow() {
	resp, err := register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)
	resp.Body.Close()

	resp, err = login(s.client, s.baseURL, "a@x.com", "secret123")
	s.Require().NoError(err)
	refreshCookie := setCookieByName(resp, core.RefreshTokenCookie)
	s.Require().NotNil(refreshCookie)
	resp.Body.Close()

	// Mint a new access token from the refresh cookie.
	resp, err = refresh(s.client, s.baseURL)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var refreshResp RefreshResponse
	s.Require().NoError(decode(resp, &refreshResp))
	s.NotEmpty(refreshResp.AccessToken)

	// No rotation: the original refresh token value still works.
	resp, err = refreshWithToken(s.baseURL, refreshCookie.Value)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestLogoutAllEndsOtherDevices() {
	resp, err := register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)
	resp.Body.Close()

	// First device.
	resp, err = login(s.client, s.baseURL, "a@x.com", "secret123")
	s.Require().NoError(err)
	resp.Body.Close()

	// Second device with its own cookie jar.
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	device2 := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	resp, err = login(device2, s.baseURL, "a@x.com", "secret123")
	s.Require().NoError(err)
	device2Refresh := setCookieByName(resp, core.RefreshTokenCookie)
	s.Require().NotNil(device2Refresh)
	resp.Body.Close()

	// Logging out everywhere from the first device.
	resp, err = logoutAll(s.client, s.baseURL)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The second device's refresh token is dead too.
	resp, err = refreshWithToken(s.baseURL, device2Refresh.Value)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestExpiredRefreshTokenClearsCookies() {
	resp, err := register(s.client, s.baseURL, "alice", "a@x.com", "secret123")
	s.Require().NoError(err)

	var regResp RegisterResponse
	s.Require().NoError(decode(resp, &regResp))

	// Plant a refresh token whose expiry is already in the past.
	err = s.repo.CreateRefreshToken(context.Background(), &core.RefreshToken{
		Token:     "stale_refresh_token",
		Type:      core.TokenTypeRefresh,
		UserID:    regResp.User.ID,
		CreatedAt: time.Now().UTC().Add(-60 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
	})
	s.Require().NoError(err)

	resp, err = refreshWithToken(s.baseURL, "stale_refresh_token")
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Both cookies are expired in the response.
	access := setCookieByName(resp, core.AccessTokenCookie)
	s.Require().NotNil(access)
	s.Less(access.MaxAge, 0)

	refreshCookie := setCookieByName(resp, core.RefreshTokenCookie)
	s.Require().NotNil(refreshCookie)
	s.Less(refreshCookie.MaxAge, 0)
	resp.Body.Close()
}

func (s *IntegrationTestSuite) TestHealth() {
	resp, err := s.client.Get(s.baseURL + "/health")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
