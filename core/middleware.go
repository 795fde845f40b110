package core

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RequireAuth gates a handler behind access-token verification. The
// candidate token comes from the accessToken cookie, falling back to a
// Bearer value in the Authorization header. Verification is a local
// signature and expiry check; no store lookup happens here.
//
// On success the identity is attached to the request context; handlers
// read it with IdentityFromContext and never parse credentials
// themselves.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractAccessToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := s.authService.VerifyAccess(token)
		if err != nil {
			s.logger.Warn("access token rejected", zap.Error(err))
			// A stale cookie would otherwise be replayed on every
			// request; expire it now.
			s.clearAccessTokenCookie(w)
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		identity := &Identity{
			ID:       claims.UserID,
			Email:    claims.Email,
			Nickname: claims.Nickname,
		}

		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
