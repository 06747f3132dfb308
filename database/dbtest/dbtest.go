// Package dbtest opens isolated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"binarymlm-go/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a migrated in-memory sqlite database private to tb.
func Open(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// OpenSeeded is Open plus the company wallet row and the root member "admin".
func OpenSeeded(tb testing.TB) *gorm.DB {
	tb.Helper()

	db := Open(tb)
	if err := database.EnsureReferenceData(db, "admin", false); err != nil {
		tb.Fatalf("reference data: %v", err)
	}
	return db
}
