package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"postboard/models"
)

type PostService struct {
	db *sql.DB
}

func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

// PostFilter narrows a post listing. Search matches title or content,
// case-insensitive; the date range applies to creation time.
type PostFilter struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Skip      int
	OwnerOnly bool
}

// votedSelect returns each post with its owner's public fields, the total
// vote count, and a viewer-specific voted flag. The conditional aggregate
// keeps the whole listing to a single round trip; there are no per-post
// follow-up queries.
const votedSelect = `
	SELECT p.id, p.title, p.content, p.published, p.created_at, p.updated_at, p.owner_id,
	       u.first_name, u.last_name, u.email,
	       COUNT(v.user_id) AS votes,
	       COUNT(v.user_id) FILTER (WHERE v.user_id = $1) AS viewer_votes
	FROM posts p
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN votes v ON v.post_id = p.id
`

const votedGroup = " GROUP BY p.id, u.first_name, u.last_name, u.email"

func scanVotedPost(rows interface{ Scan(...any) error }) (*models.PostWithVotes, error) {
	var row models.PostWithVotes
	var firstName, lastName sql.NullString
	var viewerVotes int
	err := rows.Scan(
		&row.Post.ID,
		&row.Post.Title,
		&row.Post.Content,
		&row.Post.Published,
		&row.Post.CreatedAt,
		&row.Post.UpdatedAt,
		&row.Post.OwnerID,
		&firstName,
		&lastName,
		&row.Post.Owner.Email,
		&row.Votes,
		&viewerVotes,
	)
	if err != nil {
		return nil, err
	}
	row.Post.Owner.FirstName = firstName.String
	row.Post.Owner.LastName = lastName.String
	row.UserVoted = viewerVotes > 0
	return &row, nil
}

// List returns posts visible to the viewer: published posts plus the
// viewer's own unpublished ones (or only the viewer's posts when
// OwnerOnly is set), newest first.
func (s *PostService) List(ctx context.Context, viewerID int64, filter PostFilter) ([]models.PostWithVotes, error) {
	args := []any{viewerID}
	conds := []string{}

	if filter.OwnerOnly {
		conds = append(conds, "p.owner_id = $1")
	} else {
		conds = append(conds, "(p.published OR p.owner_id = $1)")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", n, n))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conds = append(conds, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conds = append(conds, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, filter.Skip)
	skipPos := len(args)

	query := votedSelect +
		" WHERE " + strings.Join(conds, " AND ") +
		votedGroup +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", limitPos, skipPos)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.PostWithVotes{}
	for rows.Next() {
		row, err := scanVotedPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *row)
	}
	return posts, rows.Err()
}

// Get applies the same visibility rule as List: an unpublished post
// belonging to someone else reads as absent.
func (s *PostService) Get(ctx context.Context, viewerID, postID int64) (*models.PostWithVotes, error) {
	query := votedSelect +
		" WHERE p.id = $2 AND (p.published OR p.owner_id = $1)" +
		votedGroup
	row, err := scanVotedPost(s.db.QueryRowContext(ctx, query, viewerID, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return row, nil
}

// GetByID fetches the bare row regardless of visibility. Used for
// ownership checks before mutating.
func (s *PostService) GetByID(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, published, created_at, updated_at, owner_id FROM posts WHERE id = $1",
		postID,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Published, &post.CreatedAt, &post.UpdatedAt, &post.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (s *PostService) Create(ctx context.Context, ownerID int64, title, content string, published bool) (*models.Post, error) {
	var post models.Post
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, published, owner_id) VALUES ($1, $2, $3, $4)
		 RETURNING id, title, content, published, created_at, updated_at, owner_id`,
		title, content, published, ownerID,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Published, &post.CreatedAt, &post.UpdatedAt, &post.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &post, nil
}

// PostChanges carries a partial update; nil fields are left untouched.
// The full-update endpoint sets every field explicitly.
type PostChanges struct {
	Title     *string
	Content   *string
	Published *bool
}

func (s *PostService) Update(ctx context.Context, postID int64, changes PostChanges) (*models.Post, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Content != nil {
		add("content", *changes.Content)
	}
	if changes.Published != nil {
		add("published", *changes.Published)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, postID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, postID)

	query := fmt.Sprintf(
		"UPDATE posts SET %s WHERE id = $%d RETURNING id, title, content, published, created_at, updated_at, owner_id",
		strings.Join(sets, ", "), len(args))

	var post models.Post
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&post.ID, &post.Title, &post.Content, &post.Published, &post.CreatedAt, &post.UpdatedAt, &post.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return &post, nil
}

// Delete removes the post; its votes go with it via the cascade rule.
func (s *PostService) Delete(ctx context.Context, postID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
