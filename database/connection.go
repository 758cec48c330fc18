package database

import (
	"database/sql"
	"fmt"
	"time"

	"postboard/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Connect opens the Postgres pool. Each request checks a connection out of
// this pool for its duration and returns it unconditionally; nothing else
// shares state across requests.
func Connect(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Pool limits to prevent "too many clients" errors from PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
