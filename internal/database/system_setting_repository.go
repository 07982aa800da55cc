package database

import (
	"database/sql"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// SystemSettingRepository handles database operations for system_settings table
type SystemSettingRepository struct {
	db DB
}

// NewSystemSettingRepository creates a new SystemSettingRepository
func NewSystemSettingRepository(db DB) *SystemSettingRepository {
	return &SystemSettingRepository{db: db}
}

// GetByKey retrieves a system setting by its key. Returns sql.ErrNoRows when absent.
func (r *SystemSettingRepository) GetByKey(key string) (*models.SystemSetting, error) {
	query := `
		SELECT id, setting_key, setting_value, description, created_at, updated_at
		FROM system_settings
		WHERE setting_key = $1
	`

	var setting models.SystemSetting
	var description sql.NullString

	err := r.db.QueryRow(query, key).Scan(
		&setting.ID,
		&setting.SettingKey,
		&setting.SettingValue,
		&description,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		setting.Description = &description.String
	}

	return &setting, nil
}
