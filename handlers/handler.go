package handlers

import (
	"context"

	"postboard/auth"
	"postboard/models"
	"postboard/services"
)

// UserStore is what the user endpoints need from the persistence layer.
type UserStore interface {
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, changes services.UserChanges) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type PostStore interface {
	List(ctx context.Context, viewerID int64, filter services.PostFilter) ([]models.PostWithVotes, error)
	Get(ctx context.Context, viewerID, postID int64) (*models.PostWithVotes, error)
	GetByID(ctx context.Context, postID int64) (*models.Post, error)
	Create(ctx context.Context, ownerID int64, title, content string, published bool) (*models.Post, error)
	Update(ctx context.Context, postID int64, changes services.PostChanges) (*models.Post, error)
	Delete(ctx context.Context, postID int64) error
}

type VoteStore interface {
	Cast(ctx context.Context, vote models.Vote) error
	Retract(ctx context.Context, vote models.Vote) error
}

// Handler holds the resource endpoints. Dependencies arrive through the
// constructor; there is no package-level state.
type Handler struct {
	users  UserStore
	posts  PostStore
	votes  VoteStore
	tokens *auth.Service
}

func New(users UserStore, posts PostStore, votes VoteStore, tokens *auth.Service) *Handler {
	return &Handler{
		users:  users,
		posts:  posts,
		votes:  votes,
		tokens: tokens,
	}
}
