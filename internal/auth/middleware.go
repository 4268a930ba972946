package auth

import (
	"net/http"
	"strings"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/session"
)

// Middleware wires session resolution into HTTP handlers. Unauthorized access
// is answered with a redirect, not an error body, matching the till's
// terminal-driven flow.
type Middleware struct {
	Sessions   *session.Store
	CookieName string
}

// Resolve attaches the session to the request context when the cookie maps to
// a live session. It never blocks the request.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		info, ok, err := m.Sessions.Get(r.Context(), token)
		if err != nil || !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSession(r.Context(), info)))
	})
}

// RequireSession redirects unauthenticated requests to the login page.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.SessionFrom(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects non-admin callers to the main view.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := common.SessionFrom(r.Context())
		if !ok || !info.IsAdmin {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) tokenFromRequest(r *http.Request) string {
	if m.CookieName == "" {
		return ""
	}
	cookie, err := r.Cookie(m.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
