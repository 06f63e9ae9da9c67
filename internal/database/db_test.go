package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// Idempotent on an already migrated schema
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "refresh_tokens", "roles", "permissions", "role_permissions", "audit_logs", "inventory_counts", "movements"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("inventory_counts", "idx_inventory_sku_key"))
}
