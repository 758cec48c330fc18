package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"postboard/services"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges form-encoded credentials for a bearer token. The form
// field is called "username" but carries the email, matching the password
// grant shape the dashboard submits.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "malformed form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		errorJSON(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusForbidden, "User does not exist! Please create an account")
			return
		}
		slog.Error("Login lookup failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !services.VerifyPassword(password, user.PasswordHash) {
		slog.Warn("Login failed", "email", email)
		errorJSON(w, http.StatusForbidden, "Incorrect credentials")
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
