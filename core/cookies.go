package core

import (
	"net/http"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// The refresh cookie is scoped to the refresh endpoint only so it is
	// not sent on ordinary API calls.
	refreshCookiePath = "/auth/refresh"
)

// setAccessTokenCookie attaches the access token to the response.
// SameSite=Lax tolerates top-level navigations (external link-ins,
// OAuth-style redirects) without dropping the logged-in state.
func (s *Server) setAccessTokenCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    value,
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   s.config.AccessTokenDuration,
	})
}

// setRefreshTokenCookie attaches the refresh token. Refresh is a
// sensitive same-origin operation, hence SameSite=Strict.
func (s *Server) setRefreshTokenCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    value,
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteStrictMode,
		Path:     refreshCookiePath,
		MaxAge:   s.config.RefreshTokenDuration,
	})
}

func (s *Server) clearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Server) clearRefreshTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.Production,
		SameSite: http.SameSiteStrictMode,
		Path:     refreshCookiePath,
		MaxAge:   -1,
	})
}

// clearSessionCookies removes both credentials regardless of whether the
// underlying token records existed.
func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	s.clearAccessTokenCookie(w)
	s.clearRefreshTokenCookie(w)
}
