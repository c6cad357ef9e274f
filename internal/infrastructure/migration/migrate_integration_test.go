//go:build integration

package migration_test

import (
	"testing"

	"github.com/rentflow/backend/internal/infrastructure/migration"
	"github.com/rentflow/backend/internal/testutil"
	"github.com/rentflow/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMigrator_UpDownSteps(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := testutil.NewPostgresDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)

	status, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, migration.Status{Version: 1, Applied: true}, status)

	require.NoError(t, m.Up(), "already applied is not an error")

	require.NoError(t, m.Down())
	assert.False(t, db.Migrator().HasTable("invoices"))
	status, err = m.Version()
	require.NoError(t, err)
	assert.False(t, status.Applied)

	require.NoError(t, m.Steps(1))
	assert.True(t, db.Migrator().HasTable("invoices"))

	require.NoError(t, m.Force(1))
	require.NoError(t, m.GoTo(1))
	assert.Error(t, m.Steps(0))
}
