package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Open connects to postgres and verifies the connection before returning.
// The pool stays small: the only consumer is the travel cost cache, which
// issues short single-row reads and upserts.
func Open(databaseURL string) (*sql.DB, error) {
	pool, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: postgres: %w", err)
	}

	pool.SetMaxOpenConns(4)
	pool.SetMaxIdleConns(2)
	pool.SetConnMaxLifetime(30 * time.Minute)

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("open db: verify postgres connection: %w", err)
	}

	return pool, nil
}
