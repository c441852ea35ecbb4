// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foyer-backend/store"
)

// New returns a migrated GormStore on a fresh SQLite file under t.TempDir.
// The database is closed when the test ends.
func New(t testing.TB) *store.GormStore {
	t.Helper()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "foyer.db"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return store.NewGormStore(db)
}
