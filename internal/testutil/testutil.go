package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"google.golang.org/grpc/metadata"

	"userManagement/internal/config"
	"userManagement/internal/db"
)

// OpenInMemoryDB opens an in-memory SQLite database with the users table created.
// Each name gets its own database; the DB is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	// We use a shared cache memory database so that all pooled connections see the same DB.
	d, err := db.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		DSN:        "file:" + name + "?mode=memory&cache=shared",
		InitSchema: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenFileDB opens a SQLite database file under t.TempDir(). Unlike shared-cache
// memory databases it tolerates concurrent writers through the busy timeout.
func OpenFileDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		DSN:        t.TempDir() + "/users.db",
		InitSchema: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// CtxWithRequestID returns an incoming context carrying the x-request-id metadata header.
func CtxWithRequestID(ctx context.Context, id string) context.Context {
	md := metadata.Pairs("x-request-id", id)
	return metadata.NewIncomingContext(ctx, md)
}
