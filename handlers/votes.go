package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"postboard/middleware"
	"postboard/models"
	"postboard/services"
)

type voteRequest struct {
	PostID int64           `json:"post_id"`
	Dir    json.RawMessage `json:"dir"`
}

// parseDir accepts the two encodings clients have historically sent:
// true/false and 1/0. Either way it means cast or retract; there is no
// downvote.
func parseDir(raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("dir must be a boolean or 0/1")
	}
}

// Vote casts or retracts the caller's vote on a post.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.CurrentUser(r)

	var in voteRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if in.PostID == 0 || len(in.Dir) == 0 {
		errorJSON(w, http.StatusUnprocessableEntity, "post_id and dir are required")
		return
	}
	dir, err := parseDir(in.Dir)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vote := models.Vote{UserID: current.ID, PostID: in.PostID}
	if dir {
		err := h.votes.Cast(r.Context(), vote)
		switch {
		case errors.Is(err, services.ErrNotFound):
			errorJSON(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, services.ErrDuplicateVote):
			errorJSON(w, http.StatusConflict,
				fmt.Sprintf("User %d has already voted on post %d", current.ID, in.PostID))
		case err != nil:
			slog.Error("Failed to cast vote", "error", err, "user_id", current.ID, "post_id", in.PostID)
			errorJSON(w, http.StatusInternalServerError, "internal server error")
		default:
			writeJSON(w, http.StatusCreated, map[string]string{"message": "Successfully voted"})
		}
		return
	}

	err = h.votes.Retract(r.Context(), vote)
	switch {
	case errors.Is(err, services.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "You have not voted on this post")
	case err != nil:
		slog.Error("Failed to retract vote", "error", err, "user_id", current.ID, "post_id", in.PostID)
		errorJSON(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Vote removed successfully"})
	}
}
