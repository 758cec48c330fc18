package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"postboard/auth"
	"postboard/models"
)

type ctxKey int

const userKey ctxKey = iota

// UserResolver looks up the stored user a token claim refers to.
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
}

// RequireAuth resolves the bearer token to a stored user and puts it on
// the request context. Every failure mode (missing header, bad signature,
// expired token, deleted user) answers 401 identically.
func RequireAuth(tokens *auth.Service, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w)
				return
			}
			token := strings.TrimSpace(header[len("Bearer "):])

			email, err := tokens.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			// The claim may outlive the account; verify the user still exists.
			user, err := users.GetByEmail(r.Context(), email)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user placed by RequireAuth.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}
