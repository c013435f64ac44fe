package auth

import (
	"context"
	"net/http"
	"net/url"
)

// Context keys for auth data
type contextKey string

const (
	userIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessionService *SessionService
	userService    *UserService
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(sessionService *SessionService, userService *UserService) *Middleware {
	return &Middleware{
		sessionService: sessionService,
		userService:    userService,
	}
}

// RequireAuth is middleware that requires a valid session. Anonymous or
// invalid-session requests are redirected to the login page with return_to
// set to the original path; no handler runs and nothing is mutated.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.userFromRequest(r)
		if !ok {
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// OptionalAuth is middleware that adds user info to context if present.
// Does not require authentication - continues with or without a session.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := m.userFromRequest(r); ok {
			r = r.WithContext(withUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) userFromRequest(r *http.Request) (*User, bool) {
	sessionID, err := GetFromRequest(r)
	if err != nil {
		return nil, false
	}
	userID, err := m.sessionService.Validate(r.Context(), sessionID)
	if err != nil {
		return nil, false
	}
	user, err := m.userService.GetByID(r.Context(), userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

func withUser(ctx context.Context, user *User) context.Context {
	ctx = context.WithValue(ctx, userIDKey, user.ID)
	return context.WithValue(ctx, userKey, user)
}

// GetUserID retrieves the user ID from the request context.
// Returns empty string if no user is authenticated.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *User {
	user, _ := ctx.Value(userKey).(*User)
	return user
}

// IsAuthenticated checks if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
