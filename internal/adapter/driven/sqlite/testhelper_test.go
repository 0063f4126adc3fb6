package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB opens a migrated in-memory database private to the calling test.
// Writer and reader share it through cache=shared under a name taken from t.Name().
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)

	db, err := open(context.Background(), dsn, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
