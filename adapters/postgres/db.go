package postgres

import (
	"trialstats/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens and pings a PostgreSQL connection pool.
func Connect(url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping database", err)
	}
	return db, nil
}
