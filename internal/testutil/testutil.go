// Package testutil provides shared helpers for integration tests.
// Helpers skip the calling test when the backing service is not
// configured, so unit tests run without MySQL or Redis.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/database"
)

// NewMySQL opens the database named by TEST_MYSQL_DSN, applies the
// embedded migrations and empties every table.  The handle is closed when
// the test finishes.
func NewMySQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping integration test")
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Fatalf("testutil.NewMySQL: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("testutil.NewMySQL: migrate: %v", err)
	}
	for _, table := range []string{"reservations", "reservation_space_locks", "refresh_tokens", "spaces", "users"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("testutil.NewMySQL: truncate %s: %v", table, err)
		}
	}
	return db
}

// NewRedis connects to TEST_REDIS_ADDR and flushes the selected database.
func NewRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Fatalf("testutil.NewRedis: ping: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("testutil.NewRedis: flush: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}
