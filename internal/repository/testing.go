package repository

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// TestingT is an interface for testing compatibility.
type TestingT interface {
	Logf(format string, args ...any)
	Skip(args ...any)
	FailNow()
	Cleanup(func())
}

// SetupTestDatabase creates a test database connection with an isolated
// schema. Tests are skipped when TEST_DB_URL is not set.
func SetupTestDatabase(t TestingT) *sql.DB {
	connURL := os.Getenv("TEST_DB_URL")
	if connURL == "" {
		t.Skip("TEST_DB_URL not set, skipping database tests")
		return nil
	}

	var schema = fmt.Sprintf("test_%s", uuid.New().String()[0:8])

	// First, connect to create the schema
	conn, err := sql.Open("postgres", connURL)
	if err != nil {
		t.Logf("failed to connect to database. Is your local database running?: %v", err)
		t.FailNow()
	}

	_, err = conn.Exec("CREATE SCHEMA IF NOT EXISTS " + schema)
	if err != nil {
		t.Logf("Failed to create schema %s", schema)
		t.Logf("Error: %s", err)
		t.FailNow()
	}

	// Close the initial connection
	conn.Close()

	// Create a new connection with the schema in the connection string
	var connURLWithSchema = fmt.Sprintf("%s&search_path=%s", connURL, schema)
	conn, err = sql.Open("postgres", connURLWithSchema)
	if err != nil {
		t.Logf("failed to connect to database with schema: %v", err)
		t.FailNow()
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}
