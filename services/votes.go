package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postboard/models"

	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

type VoteService struct {
	db *sql.DB
}

func NewVoteService(db *sql.DB) *VoteService {
	return &VoteService{db: db}
}

// Cast inserts the (user, post) vote row. The composite primary key
// rejects a second vote even under concurrent requests, and the post_id
// foreign key rejects votes on posts that do not exist, so a single insert
// covers both checks.
func (s *VoteService) Cast(ctx context.Context, vote models.Vote) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO votes (user_id, post_id) VALUES ($1, $2)", vote.UserID, vote.PostID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

// Retract deletes the vote; absence is a not-found, not a no-op.
func (s *VoteService) Retract(ctx context.Context, vote models.Vote) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM votes WHERE user_id = $1 AND post_id = $2", vote.UserID, vote.PostID)
	if err != nil {
		return fmt.Errorf("failed to retract vote: %w", err)
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
