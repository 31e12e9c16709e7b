package db

import "fmt"

// dialect holds the statements that differ between SQL engines
type dialect struct {
	name       string
	migrations []string
	get        string
	put        string
}

var sqliteDialect = dialect{
	name:       "sqlite",
	migrations: []string{migrationCreateEntriesSQLite},
	get:        `SELECT value FROM entries WHERE key = ?`,
	put: `INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
}

var postgresDialect = dialect{
	name:       "postgres",
	migrations: []string{migrationCreateEntriesPostgres},
	get:        `SELECT value FROM entries WHERE key = $1`,
	put: `INSERT INTO entries (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
}

// migrate runs all database migrations
func (db *DB) migrate() error {
	for i, m := range db.dialect.migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("%s migration %d failed: %w", db.dialect.name, i+1, err)
		}
	}

	return nil
}

const migrationCreateEntriesSQLite = `
CREATE TABLE IF NOT EXISTS entries (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

const migrationCreateEntriesPostgres = `
CREATE TABLE IF NOT EXISTS entries (
    key VARCHAR(255) PRIMARY KEY,
    value BYTEA NOT NULL,
    updated_at TEXT NOT NULL
);
`
