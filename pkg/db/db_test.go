package db

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nearbyu-loyalty/pkg/config"
)

func TestDialect(t *testing.T) {
	cfg := config.Default()

	d, err := Dialect(cfg)
	require.NoError(t, err)
	require.IsType(t, &sqlite.Dialector{}, d)

	cfg.Database.Type = "postgres"
	cfg.Database.DBNAME = "loyalty"
	d, err = Dialect(cfg)
	require.NoError(t, err)
	require.IsType(t, &postgres.Dialector{}, d)
	require.Equal(t, "loyalty", getDBNameFromDialector(d))

	cfg.Database.Type = "mysql"
	d, err = Dialect(cfg)
	require.NoError(t, err)
	require.IsType(t, &mysql.Dialector{}, d)
	require.Equal(t, "loyalty", getDBNameFromDialector(d))

	cfg.Database.Type = "oracle"
	_, err = Dialect(cfg)
	require.Error(t, err)
}

func TestExtractDBNameFromDSN(t *testing.T) {
	require.Equal(t, "coins", extractDBNameFromDSN("host=db port=5432 dbname=coins sslmode=disable"))
	require.Equal(t, "coins", extractDBNameFromDSN("u:p@tcp(db:3306)/coins?parseTime=True"))
	require.Equal(t, "unknown", extractDBNameFromDSN("host=db"))
}

func TestRegisterPlugins(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Database.Tracing = false
	cfg.Database.Metrics = false
	require.NoError(t, registerPlugins(cfg, db))
	require.Empty(t, db.Config.Plugins)

	cfg.Database.Tracing = true
	require.NoError(t, registerPlugins(cfg, db))
	require.Len(t, db.Config.Plugins, 1)

	// a second registration of the same plugin is refused and reported
	require.ErrorIs(t, registerPlugins(cfg, db), gorm.ErrRegistered)
}
