package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
)

// setupTestDB creates an in-memory SQLite database private to the test.
// Uses shared-cache mode with a single connection so every query sees the
// same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&entities.Alert{},
		&entities.AlertResponse{},
		&entities.ActivityLog{},
		&entities.User{},
	)
	require.NoError(t, err, "failed to migrate tables")
	return db
}
