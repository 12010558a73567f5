package postgres

import (
	"context"
	"os"
	"testing"
)

// setupTestDB connects to the database named by CLINICAUTH_TEST_DATABASE_URL,
// applies migrations, and empties every table. Tests are skipped when the
// variable is unset so the suite runs without a PostgreSQL server.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("CLINICAUTH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLINICAUTH_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, url)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := db.Pool.Exec(ctx, `truncate provider_links, otp_entries, accounts`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return db
}
