package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// SettingsStore reads system settings
type SettingsStore interface {
	GetByKey(key string) (*models.SystemSetting, error)
}

// PriceTableService reads the per-vehicle price tables of private and luxury products
type PriceTableService struct {
	settings SettingsStore
	logger   *logrus.Logger
}

// NewPriceTableService creates a new price table service
func NewPriceTableService(settings SettingsStore, logger *logrus.Logger) *PriceTableService {
	return &PriceTableService{
		settings: settings,
		logger:   logger,
	}
}

func priceTableKey(kind models.ProductKind) (string, bool) {
	switch kind {
	case models.ProductKindPrivate:
		return models.SettingPriceTablePrivate, true
	case models.ProductKindLuxury:
		return models.SettingPriceTableLuxury, true
	default:
		return "", false
	}
}

// Table loads the price table of a product kind
func (s *PriceTableService) Table(kind models.ProductKind) (*models.TierPriceTable, error) {
	key, ok := priceTableKey(kind)
	if !ok {
		return nil, &ResolutionError{
			Kind:    ResolutionConfig,
			Message: fmt.Sprintf("product kind %s is not priced by table", kind),
		}
	}

	setting, err := s.settings.GetByKey(key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ResolutionError{
				Kind:    ResolutionConfig,
				Message: fmt.Sprintf("no price table configured for %s", kind),
			}
		}
		return nil, fmt.Errorf("failed to load price table %s: %w", key, err)
	}

	var table models.TierPriceTable
	if err := json.Unmarshal([]byte(setting.SettingValue), &table); err != nil {
		return nil, &ResolutionError{
			Kind:    ResolutionConfig,
			Message: fmt.Sprintf("price table %s is malformed: %v", key, err),
		}
	}
	table.Kind = kind

	return &table, nil
}

// Price returns the vehicle price for a party size
func (s *PriceTableService) Price(kind models.ProductKind, travelers int) (float64, string, error) {
	table, err := s.Table(kind)
	if err != nil {
		return 0, "", err
	}

	price, ok := table.PriceFor(travelers)
	if !ok {
		return 0, "", &ResolutionError{
			Kind:    ResolutionConfig,
			Message: fmt.Sprintf("no %s vehicle for %d travelers", kind, travelers),
		}
	}

	return price, table.Currency, nil
}
