package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-generic-dao/mapping"
	"github.com/goliatone/go-generic-dao/session"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbCounter atomic.Int64

// SQLiteDSN returns a DSN for a private in-memory database.
func SQLiteDSN() string {
	return fmt.Sprintf("file:dao_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
}

// NewSQLiteDB opens a private in-memory sqlite database. It is closed when
// the test ends.
func NewSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", SQLiteDSN())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// a single connection keeps the in-memory database and transactions coherent
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// NewRegistry registers models, Models() when none are given, and creates
// their tables.
func NewRegistry(t *testing.T, db *bun.DB, models ...any) *mapping.Registry {
	t.Helper()

	if len(models) == 0 {
		models = Models()
	}
	registry, err := mapping.NewRegistry(db, models...)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	if err := registry.CreateTables(context.Background()); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return registry
}

// NewFactory returns a session factory over a fresh sqlite database with
// the tables of Models() created.
func NewFactory(t *testing.T) *session.Factory {
	t.Helper()

	db := NewSQLiteDB(t)
	factory, err := session.NewFactory(db, NewRegistry(t, db))
	if err != nil {
		t.Fatalf("failed to create session factory: %v", err)
	}
	return factory
}

// BindSession opens a session, binds it to a new context and closes it when
// the test ends.
func BindSession(t *testing.T, factory *session.Factory) (context.Context, *session.Session) {
	t.Helper()

	s := factory.OpenSession()
	t.Cleanup(func() {
		_ = s.Close()
	})
	return session.Bind(context.Background(), s), s
}
