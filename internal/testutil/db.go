// Package testutil holds helpers shared by tests that need a seeded store,
// a running daemon or a CLI command harness.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/thenoetrevino/crmboard/internal/app"
	"github.com/thenoetrevino/crmboard/internal/database"
)

// SetupTestApp creates an App over an in-memory database seeded with the
// demo boards. The App is closed on test cleanup.
func SetupTestApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	return SetupTestAppAt(t, ":memory:", opts...)
}

// SetupTestAppAt is SetupTestApp over the database at path. Several apps
// opened on the same file path share one store.
func SetupTestAppAt(t *testing.T, path string, opts ...app.Option) *app.App {
	t.Helper()
	ctx := context.Background()

	db, err := database.InitDB(ctx, path)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	application := app.New(db, opts...)
	t.Cleanup(func() {
		if err := application.Close(); err != nil {
			t.Logf("Warning: app close error during cleanup: %v", err)
		}
	})

	if _, err := application.Repo.SeedDemo(ctx); err != nil {
		t.Fatalf("Failed to seed demo boards: %v", err)
	}
	return application
}

// TempDBPath returns a database path inside the test's temp dir
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "crmboard-test.db")
}
