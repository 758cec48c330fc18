package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates the three application tables. The foreign keys carry
// ON DELETE CASCADE so removing a user removes their posts and votes, and
// removing a post removes its votes. The composite primary key on votes
// and the unique email are the only duplicate protection under concurrent
// requests; the application never locks rows itself.
func Migrate(db *sql.DB) error {
	usersSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		first_name VARCHAR(100),
		last_name VARCHAR(100),
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(usersSQL); err != nil {
		return fmt.Errorf("failed to run users migration: %w", err)
	}

	postsSQL := `
	CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		published BOOLEAN NOT NULL DEFAULT TRUE,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC);
	`
	if _, err := db.Exec(postsSQL); err != nil {
		return fmt.Errorf("failed to run posts migration: %w", err)
	}

	votesSQL := `
	CREATE TABLE IF NOT EXISTS votes (
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, post_id)
	);
	`
	if _, err := db.Exec(votesSQL); err != nil {
		return fmt.Errorf("failed to run votes migration: %w", err)
	}

	return nil
}
