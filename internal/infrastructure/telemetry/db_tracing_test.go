package telemetry

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return db
}

func TestRegisterGormTracing(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := newTestDB(t)

		err := RegisterGormTracing(db, false, zap.NewNop())

		require.NoError(t, err)
		assert.Nil(t, db.Config.Plugins["otelgorm"])
	})

	t.Run("enabled attaches the plugin", func(t *testing.T) {
		db := newTestDB(t)

		err := RegisterGormTracing(db, true, zap.NewNop())

		require.NoError(t, err)
		assert.NotNil(t, db.Config.Plugins["otelgorm"])
	})
}
