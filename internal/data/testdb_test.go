//go:build integration

package data

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupStore creates a new in-memory SQLite database with the full schema.
// It returns a Store over it and a teardown function to be deferred.
func setupStore(t *testing.T) (*Store, *sqlx.DB, func()) {
	t.Helper()

	// A single connection keeps every query on the same in-memory database.
	db, err := sqlx.Connect("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	schema, err := os.ReadFile("../../testdata/sqlite_schema.sql")
	if err != nil {
		t.Fatalf("Failed to read test schema: %v", err)
	}
	db.MustExec(string(schema))

	teardown := func() {
		db.Close()
	}
	return NewStore(db), db, teardown
}

// mustSavePage saves page or fails the test.
func mustSavePage(t *testing.T, s *Store, page *Page) *Page {
	t.Helper()
	if err := s.Pages.Save(contextForTest(), page); err != nil {
		t.Fatalf("failed to save page: %v", err)
	}
	return page
}
