// Package dbtest opens migrated databases for repository and service tests.
package dbtest

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// PostgresDSNEnv names the variable that enables Postgres-backed tests.
const PostgresDSNEnv = "STOREFRONT_TEST_DB_DSN"

// Open returns an isolated in-memory SQLite database with every model migrated.
// A single connection is kept so concurrent transactions serialize instead of failing with SQLITE_BUSY.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:storefront_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), testConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

// OpenClient wraps Open in a db.Client for services that need WithTx.
func OpenClient(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

// OpenPostgres connects to the database named by STOREFRONT_TEST_DB_DSN or skips the test.
// The database should be a scratch one: models are auto-migrated and rows are left behind,
// so callers scope their assertions to freshly generated ids.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", PostgresDSNEnv)
	}
	conn, err := gorm.Open(postgres.Open(dsn), testConfig())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	// Packages test in parallel processes against the same database.
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockKey).Error; err != nil {
			return err
		}
		return tx.AutoMigrate(models.All()...)
	})
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

const migrateLockKey = 727501

func testConfig() *gorm.Config {
	return &gorm.Config{NowFunc: db.UTCNow, Logger: gormlogger.Discard}
}
