package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"bizdesk-service/internal/model"
	"bizdesk-service/pkg/config"
)

func sqliteConfig(t *testing.T, mode string) *config.DBConfig {
	t.Helper()
	return &config.DBConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "bizdesk.db"),
		Migrate:         mode,
		ConnMaxLifetime: time.Hour,
		LogLevel:        logger.Silent,
	}
}

func TestOpenSqliteAndAutoMigrate(t *testing.T) {
	cfg := sqliteConfig(t, "auto")
	db, err := Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db, cfg))
	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	// foreign keys are enforced
	err = db.Create(&model.Product{Name: "Orphan", SKU: "O-1", VatRateID: 42, Unit: "pcs"}).Error
	assert.Error(t, err)
}

func TestMigrateModes(t *testing.T) {
	cfg := sqliteConfig(t, "none")
	db, err := Open(cfg)
	require.NoError(t, err)

	require.NoError(t, Migrate(db, cfg))
	assert.False(t, db.Migrator().HasTable(&model.Product{}))

	cfg.Migrate = "sql"
	assert.ErrorContains(t, Migrate(db, cfg), "postgres")

	cfg.Migrate = "sideways"
	assert.ErrorContains(t, Migrate(db, cfg), "unknown migrate mode")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	up, err := migrations.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	down, err := migrations.ReadFile("migrations/000001_init.down.sql")
	require.NoError(t, err)

	assert.Contains(t, string(up), "idx_products_sku")
	assert.Contains(t, string(up), "ON DELETE CASCADE")
	assert.Contains(t, string(down), "DROP TABLE IF EXISTS products")
}

func TestSQLMigrationsPostgres(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	require.NoError(t, RunSQLMigrations(url))
	// second run is a no-op
	require.NoError(t, RunSQLMigrations(url))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "/var/lib/bizdesk.db?_foreign_keys=on", sqliteDSN("/var/lib/bizdesk.db"))
	assert.Equal(t, "file:biz?mode=memory&cache=shared&_foreign_keys=on", sqliteDSN("file:biz?mode=memory&cache=shared"))
}

func TestOpenSqlitePathWithQuery(t *testing.T) {
	cfg := sqliteConfig(t, "auto")
	cfg.Path = "file:" + filepath.Join(t.TempDir(), "query.db") + "?cache=shared"
	db, err := Open(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db, cfg))
	err = db.Create(&model.Product{Name: "Orphan", SKU: "O-1", VatRateID: 42, Unit: "pcs"}).Error
	assert.Error(t, err)
}
