package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingByKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSystemSettingRepository(db)
	now := time.Now()

	columns := []string{"id", "setting_key", "setting_value", "description", "created_at", "updated_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM system_settings WHERE setting_key`).
			WithArgs("price_table_private").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("1", "price_table_private", `{"currency": "EUR"}`, "Private car prices", now, now))

		setting, err := repo.GetByKey("price_table_private")
		require.NoError(t, err)
		assert.Equal(t, `{"currency": "EUR"}`, setting.SettingValue)
		require.NotNil(t, setting.Description)
		assert.Equal(t, "Private car prices", *setting.Description)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Null description", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM system_settings WHERE setting_key`).
			WithArgs("price_table_luxury").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("2", "price_table_luxury", `{}`, nil, now, now))

		setting, err := repo.GetByKey("price_table_luxury")
		require.NoError(t, err)
		assert.Nil(t, setting.Description)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM system_settings WHERE setting_key`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(columns))

		setting, err := repo.GetByKey("nope")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, setting)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
