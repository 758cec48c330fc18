package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"postboard/middleware"
	"postboard/models"
	"postboard/services"
)

type createUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type updateUserRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"current_password"`
}

type deleteUserRequest struct {
	Password string `json:"password"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		errorJSON(w, http.StatusUnprocessableEntity, "first_name, last_name, email and password are required")
		return
	}
	if !emailRegex.MatchString(in.Email) {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}
	if err := services.ValidatePasswordStrength(in.Password); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := services.HashPassword(in.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.users.Create(r.Context(), in.FirstName, in.LastName, in.Email, hash)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			errorJSON(w, http.StatusNotAcceptable, fmt.Sprintf("User with email %s already exists", in.Email))
			return
		}
		slog.Error("Failed to create user", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusCreated, user)
}

// ListUsers is the public list view: names and emails only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	public := make([]models.UserPublic, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	writeJSON(w, http.StatusOK, public)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("Failed to get user", "error", err, "user_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// The detail view is private; only the owner may read it.
	if user.ID != current.ID {
		errorJSON(w, http.StatusForbidden, "Not authorized for this action")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)
	writeJSON(w, http.StatusOK, current)
}

// UpdateUser handles PATCH (partial) and PUT (full overwrite). On PUT the
// profile fields are required and all written; on PATCH absent fields are
// left untouched. Either way a password change must be accompanied by the
// verified current password.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	partial := r.Method == http.MethodPatch

	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("Failed to get user", "error", err, "user_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user.ID != current.ID {
		errorJSON(w, http.StatusForbidden, "Not authorized for this action")
		return
	}

	var in updateUserRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if !partial {
		if in.FirstName == nil || in.LastName == nil || in.Email == nil ||
			*in.FirstName == "" || *in.LastName == "" || *in.Email == "" {
			errorJSON(w, http.StatusUnprocessableEntity, "first_name, last_name and email are required")
			return
		}
	}
	if in.Email != nil && !emailRegex.MatchString(*in.Email) {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid email address")
		return
	}

	changes := services.UserChanges{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}

	if in.Password != nil {
		if in.CurrentPassword == nil || *in.CurrentPassword == "" {
			errorJSON(w, http.StatusBadRequest, "Current password required")
			return
		}
		if !services.VerifyPassword(*in.CurrentPassword, user.PasswordHash) {
			errorJSON(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		if err := services.ValidatePasswordStrength(*in.Password); err != nil {
			errorJSON(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		hash, err := services.HashPassword(*in.Password)
		if err != nil {
			slog.Error("Failed to hash password", "error", err)
			errorJSON(w, http.StatusInternalServerError, "internal server error")
			return
		}
		changes.PasswordHash = &hash
	}

	updated, err := h.users.Update(r.Context(), id, changes)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			errorJSON(w, http.StatusNotAcceptable, fmt.Sprintf("User with email %s already exists", *in.Email))
			return
		}
		slog.Error("Failed to update user", "error", err, "user_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser removes the caller's account after re-confirming their
// password. Posts and votes cascade away with the row.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("Failed to get user", "error", err, "user_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user.ID != current.ID {
		errorJSON(w, http.StatusForbidden, "Not authorized for this action")
		return
	}

	var in deleteUserRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if !services.VerifyPassword(in.Password, user.PasswordHash) {
		errorJSON(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		slog.Error("Failed to delete user", "error", err, "user_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("User deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}
