package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type Server struct {
	authService *AuthService
	config      *Config
	logger      *zap.Logger
}

func NewServer(authService *AuthService, config *Config, logger *zap.Logger) *Server {
	return &Server{
		authService: authService,
		config:      config,
		logger:      logger,
	}
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Nickname string  `json:"nickname"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		FullName *string `json:"full_name"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Nickname == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Nickname, email, and password are required")
		return
	}

	ctx := r.Context()
	user, err := s.authService.Register(ctx, RegisterRequest{
		Nickname: req.Nickname,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			respondError(w, http.StatusBadRequest, "Nickname, email, and password are required")
		case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrNicknameTaken):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("registration failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx := r.Context()
	result, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	refreshToken, err := s.authService.IssueRefreshToken(ctx, result.User.ID)
	if err != nil {
		s.logger.Error("failed to issue refresh token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	// The refresh token travels only in its cookie, never in the body.
	s.setAccessTokenCookie(w, result.AccessToken)
	s.setRefreshTokenCookie(w, refreshToken)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		respondError(w, http.StatusUnauthorized, "Refresh token is required")
		return
	}

	ctx := r.Context()
	accessToken, err := s.authService.Refresh(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			s.clearSessionCookies(w)
			respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		s.logger.Error("refresh failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	s.setAccessTokenCookie(w, accessToken)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"accessToken": accessToken,
	})
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	ctx := r.Context()
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		if err := s.authService.Logout(ctx, cookie.Value); err != nil {
			// Logout never fails to the client; the cookies are cleared
			// either way and an orphaned record expires on its own.
			s.logger.Error("failed to delete refresh token", zap.Error(err))
		}
	}

	s.clearSessionCookies(w)

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodPost) {
		return
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := s.authService.LogoutAll(r.Context(), identity.ID); err != nil {
		s.logger.Error("failed to delete user refresh tokens", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	// This device's session ends along with all the others.
	s.clearSessionCookies(w)

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if !validateMethod(w, r, http.MethodGet) {
		return
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := s.authService.GetProfile(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error("failed to fetch user profile", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch user profile")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Helper functions

func validateMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
