package services

import (
	"errors"
	"testing"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSettings struct{}

func (brokenSettings) GetByKey(key string) (*models.SystemSetting, error) {
	return nil, errors.New("connection refused")
}

func TestPriceTableService_Table(t *testing.T) {
	service := NewPriceTableService(fakeSettings{
		models.SettingPriceTablePrivate: privateTable,
		models.SettingPriceTableLuxury:  `{"currency": "EUR", "breakpoints": "lots"}`,
	}, testLogger())

	table, err := service.Table(models.ProductKindPrivate)
	require.NoError(t, err)
	assert.Equal(t, models.ProductKindPrivate, table.Kind)
	assert.Equal(t, "EUR", table.Currency)
	assert.Len(t, table.Breakpoints, 2)

	_, err = service.Table(models.ProductKindLuxury)
	assert.True(t, IsResolutionKind(err, ResolutionConfig))

	_, err = service.Table(models.ProductKindEconomy)
	assert.True(t, IsResolutionKind(err, ResolutionConfig))
}

func TestPriceTableService_StoreFailure(t *testing.T) {
	service := NewPriceTableService(brokenSettings{}, testLogger())

	_, _, err := service.Price(models.ProductKindPrivate, 2)
	require.Error(t, err)

	var resErr *ResolutionError
	assert.False(t, errors.As(err, &resErr))
	assert.Contains(t, err.Error(), "connection refused")
}
