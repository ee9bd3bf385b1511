package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database structure.
// These run on startup with create-if-absent semantics, so re-running
// against an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS settlements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    market_pair TEXT NOT NULL,
    amount REAL NOT NULL,
    price REAL NOT NULL,
    sensitive_memo TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_settlements_created_at ON settlements(created_at DESC, id DESC);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
