package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smarttransit/transfer-booking-backend/internal/models"
)

// CatalogRepository reads the locally synced transport catalog. It never writes.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const productColumns = `
	id, title, kind, free_hotel_connection, min_people, max_people, ordering,
	created_at, updated_at`

// GetProduct returns a product with its variant map, or nil if not found
func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*models.BookableProduct, error) {
	query := `SELECT ` + productColumns + ` FROM bookable_products WHERE id = $1`

	var product models.BookableProduct
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	variants, err := r.variants(ctx, `WHERE product_id = $1`, id)
	if err != nil {
		return nil, err
	}

	product.Variants = make(map[models.VariantKey]int64, len(variants))
	for _, v := range variants {
		product.Variants[v.Key()] = v.ActivityID
	}

	return &product, nil
}

// ListProducts returns every product in display order
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]models.BookableProduct, error) {
	query := `SELECT ` + productColumns + ` FROM bookable_products ORDER BY ordering, id`

	products := []models.BookableProduct{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	variants, err := r.variants(ctx, ``)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int64]map[models.VariantKey]int64, len(products))
	for _, v := range variants {
		if byProduct[v.ProductID] == nil {
			byProduct[v.ProductID] = make(map[models.VariantKey]int64)
		}
		byProduct[v.ProductID][v.Key()] = v.ActivityID
	}

	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
		if products[i].Variants == nil {
			products[i].Variants = map[models.VariantKey]int64{}
		}
	}

	return products, nil
}

func (r *CatalogRepository) variants(ctx context.Context, where string, args ...interface{}) ([]models.ProductVariant, error) {
	query := `
		SELECT product_id, direction, hotel_connection, round_trip, activity_id
		FROM product_variants ` + where

	variants := []models.ProductVariant{}
	if err := r.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load product variants: %w", err)
	}
	return variants, nil
}

// GetPlace returns a pickup/dropoff place, or nil if not found
func (r *CatalogRepository) GetPlace(ctx context.Context, id int64) (*models.Place, error) {
	query := `
		SELECT id, vendor_id, title, type, location, ordering
		FROM places
		WHERE id = $1`

	var place models.Place
	if err := r.db.GetContext(ctx, &place, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get place %d: %w", id, err)
	}
	return &place, nil
}

// ListPlaces returns the places of a vendor in display order
func (r *CatalogRepository) ListPlaces(ctx context.Context, vendorID int64) ([]models.Place, error) {
	query := `
		SELECT id, vendor_id, title, type, location, ordering
		FROM places
		WHERE vendor_id = $1
		ORDER BY ordering, title`

	places := []models.Place{}
	if err := r.db.SelectContext(ctx, &places, query, vendorID); err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

// GetActivity returns the cached activity document, or nil if not found
func (r *CatalogRepository) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	query := `
		SELECT id, external_id, title, vendor_id, document, synced_at
		FROM activities
		WHERE id = $1`

	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity %d: %w", id, err)
	}
	return &activity, nil
}

// ListCrossSaleItems returns every cached cross-sale item
func (r *CatalogRepository) ListCrossSaleItems(ctx context.Context) ([]models.CrossSaleItem, error) {
	query := `SELECT id, document, synced_at FROM cross_sale_items ORDER BY id`

	items := []models.CrossSaleItem{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list cross-sale items: %w", err)
	}
	return items, nil
}
