package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"postboard/auth"
	"postboard/models"
	"postboard/services"
)

type staticResolver struct {
	user *models.User
}

func (r *staticResolver) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, services.ErrNotFound
}

func TestRequireAuthRejections(t *testing.T) {
	tokens := auth.NewService("test-secret", 60)
	alice := &models.User{ID: 1, Email: "alice@example.com"}

	valid, err := tokens.Issue(alice.Email)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	orphan, err := tokens.Issue("ghost@example.com")
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	handler := RequireAuth(tokens, &staticResolver{user: alice})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-token"},
		{"user gone", "Bearer " + orphan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}

	// Sanity check that a valid token passes through.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", rec.Code)
	}
}

func TestCurrentUserInjection(t *testing.T) {
	tokens := auth.NewService("test-secret", 60)
	alice := &models.User{ID: 1, Email: "alice@example.com"}

	token, err := tokens.Issue(alice.Email)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	var seen *models.User
	handler := RequireAuth(tokens, &staticResolver{user: alice})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = CurrentUser(r)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.ID != alice.ID {
		t.Fatalf("handler saw user %+v", seen)
	}
}

func TestCurrentUserAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user, ok := CurrentUser(req); ok || user != nil {
		t.Fatalf("expected no user on a bare request, got %+v", user)
	}
}
