package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/code-sleuth/eduverse-go/pkg/db"
)

// SetupTestDB creates a test database connection and cleans all tables.
// Tests that call it are integration tests and skip when the database
// environment variables are not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Best effort: running from a package directory three levels deep.
	_ = LoadEnvFromFile("../../../.env")

	dbURL := os.Getenv("TURSO_DATABASE_URL")
	authToken := os.Getenv("TURSO_AUTH_TOKEN")

	if dbURL == "" || authToken == "" {
		t.Skip("Database environment variables not set - skipping integration test")
	}

	database, err := db.Connect()
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	cleanupTestData(t, database)

	return database
}

// CleanupTestDB performs cleanup after tests.
func CleanupTestDB(t *testing.T, database *sql.DB) {
	t.Helper()
	if database == nil {
		return
	}

	cleanupTestData(t, database)
	database.Close()
}

// cleanupTestData removes all test data from database tables.
func cleanupTestData(t *testing.T, database *sql.DB) {
	t.Helper()
	tables := []string{
		"session_messages",
		"chunks",
		"indexing_jobs",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s", table) // #nosec G201 -- table names are hardcoded, not user input
		_, err := database.Exec(query)
		if err != nil {
			t.Logf("Warning: Failed to clean table %s: %v", table, err)
		}
	}
}

// LoadEnvFromFile loads environment variables from a file of export statements.
func LoadEnvFromFile(filepath string) error {
	file, err := os.Open(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	const maxFileSize = 1024
	content := make([]byte, maxFileSize)
	n, err := file.Read(content)
	if err != nil && n == 0 {
		return err
	}

	lines := strings.Split(string(content[:n]), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimPrefix(line, "export ")

			const expectedParts = 2
			parts := strings.SplitN(line, "=", expectedParts)
			if len(parts) == expectedParts {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
					value = value[1 : len(value)-1]
				}

				os.Setenv(key, value)
			}
		}
	}

	return nil
}

// RecordExists checks if a record exists in a table.
func RecordExists(t *testing.T, db *sql.DB, table, idColumn, id string) bool {
	t.Helper()
	// #nosec G201 -- table and column names are hardcoded, not user input
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, idColumn)
	var count int
	err := db.QueryRow(query, id).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check if record exists: %v", err)
	}
	return count > 0
}

// GetRecordCount returns the number of rows in a table.
func GetRecordCount(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table) // #nosec G201 -- table name is hardcoded, not user input
	var count int
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to get record count: %v", err)
	}
	return count
}
