// Package testutil holds helpers shared by service tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database named after the test,
// migrates models into it and closes it when the test ends. Connections are
// capped at one so that concurrent transactions queue instead of failing
// with "database is locked".
func NewTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	return open(t, dsn, 1, models)
}

// NewPooledTestDB opens a file backed SQLite database in a temporary
// directory with a real connection pool, so transactions from different
// goroutines run on different connections. Writers take the database lock
// at BEGIN and wait for each other through the busy timeout.
func NewPooledTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	file := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", file)
	return open(t, dsn, 8, models)
}

func open(t *testing.T, dsn string, maxConns int, models []any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate test database: %v", err)
		}
	}
	return db
}
