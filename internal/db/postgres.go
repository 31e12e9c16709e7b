package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DefaultPostgresURL is used when DATABASE_URL is not set
const DefaultPostgresURL = "postgres://localhost:5432/taskdeck?sslmode=disable"

// OpenPostgres connects to Postgres and runs migrations
func OpenPostgres(dbURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return open(sqlDB, postgresDialect)
}
