package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"postboard/middleware"
	"postboard/services"
)

type createPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published"`
}

type updatePostRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request, ownerOnly bool) {
	current, _ := middleware.CurrentUser(r)

	startDate, err := parseDateQuery(r, "start_date", false)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	endDate, err := parseDateQuery(r, "end_date", true)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	filter := services.PostFilter{
		Search:    r.URL.Query().Get("search"),
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     parseIntQuery(r, "limit", 50),
		Skip:      parseIntQuery(r, "skip", 0),
		OwnerOnly: ownerOnly,
	}

	posts, err := h.posts.List(r.Context(), current.ID, filter)
	if err != nil {
		slog.Error("Failed to list posts", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// ListPosts returns all published posts plus the caller's own unpublished
// ones, annotated with vote counts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, false)
}

// ListMyPosts returns only the caller's posts, published or not.
func (h *Handler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	h.listPosts(w, r, true)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	post, err := h.posts.Get(r.Context(), current.ID, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, fmt.Sprintf("Post with id %d not found", id))
			return
		}
		slog.Error("Failed to get post", "error", err, "post_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)

	var in createPostRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if in.Title == "" || in.Content == "" {
		errorJSON(w, http.StatusUnprocessableEntity, "title and content are required")
		return
	}
	published := true
	if in.Published != nil {
		published = *in.Published
	}

	post, err := h.posts.Create(r.Context(), current.ID, in.Title, in.Content, published)
	if err != nil {
		slog.Error("Failed to create post", "error", err, "user_id", current.ID)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	post.Owner = current.Public()

	slog.Info("Post created", "post_id", post.ID, "user_id", current.ID)
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PATCH (absent fields untouched) and PUT (every field
// required and overwritten). The two verbs are deliberately distinct
// contracts.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	partial := r.Method == http.MethodPatch

	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, fmt.Sprintf("Post with id %d not found", id))
			return
		}
		slog.Error("Failed to get post", "error", err, "post_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if post.OwnerID != current.ID {
		errorJSON(w, http.StatusForbidden, "Not authorized to perform this action")
		return
	}

	var in updatePostRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	changes := services.PostChanges{
		Title:     in.Title,
		Content:   in.Content,
		Published: in.Published,
	}
	if !partial {
		if in.Title == nil || in.Content == nil || *in.Title == "" || *in.Content == "" {
			errorJSON(w, http.StatusUnprocessableEntity, "title and content are required")
			return
		}
		// Full update: unspecified published resets to the default.
		if in.Published == nil {
			published := true
			changes.Published = &published
		}
	}

	updated, err := h.posts.Update(r.Context(), id, changes)
	if err != nil {
		slog.Error("Failed to update post", "error", err, "post_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	updated.Owner = current.Public()
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, fmt.Sprintf("Post with id %d not found", id))
			return
		}
		slog.Error("Failed to get post", "error", err, "post_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if post.OwnerID != current.ID {
		errorJSON(w, http.StatusForbidden, "Not authorized to perform this action")
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		slog.Error("Failed to delete post", "error", err, "post_id", id)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("Post deleted", "post_id", id, "user_id", current.ID)
	w.WriteHeader(http.StatusNoContent)
}
