package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/models"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// AuditCatalog is the part of the local catalog checked by an audit
type AuditCatalog interface {
	ListProducts(ctx context.Context) ([]models.BookableProduct, error)
	ListCrossSaleItems(ctx context.Context) ([]models.CrossSaleItem, error)
}

// CatalogAuditService compares the local catalog with the vendor's Bokun
// activities so broken products are found before a customer hits them.
type CatalogAuditService struct {
	client   *bokun.Client
	catalog  AuditCatalog
	resolver *CatalogResolver
	vendorID int64
	logger   *logrus.Logger
}

// NewCatalogAuditService creates a new CatalogAuditService
func NewCatalogAuditService(client *bokun.Client, catalog AuditCatalog, resolver *CatalogResolver, vendorID int64, logger *logrus.Logger) *CatalogAuditService {
	return &CatalogAuditService{
		client:   client,
		catalog:  catalog,
		resolver: resolver,
		vendorID: vendorID,
		logger:   logger,
	}
}

// Run audits every product and cross-sale item. Only failures to read the
// local catalog or to search Bokun are returned as errors; everything else
// ends up in the report.
func (s *CatalogAuditService) Run(ctx context.Context) (*models.CatalogAuditReport, error) {
	report := &models.CatalogAuditReport{Issues: []models.CatalogIssue{}}

	// 1. Vendor activities offered by Bokun
	remote, err := s.SearchActivities(ctx)
	if err != nil {
		return nil, err
	}
	report.RemoteActivities = len(remote)

	// 2. Products and their variants
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	checked := make(map[int64]bool)
	for i := range products {
		product := &products[i]
		report.ProductsChecked++
		subject := fmt.Sprintf("product %d", product.ID)

		for _, direction := range []models.Direction{models.DirectionOutbound, models.DirectionInbound} {
			if _, ok := product.Variants[models.VariantKey{Direction: direction}]; !ok {
				report.AddIssue(subject, "no plain %s variant", direction)
			}
		}

		for _, activityID := range sortedActivityIDs(product.Variants) {
			if checked[activityID] {
				continue
			}
			checked[activityID] = true
			report.ActivitiesChecked++
			s.auditActivity(ctx, report, remote, activityID)
		}
	}

	// 3. Cross-sale items share the category capability
	items, err := s.catalog.ListCrossSaleItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cross-sale items: %w", err)
	}
	for _, item := range items {
		report.CrossSaleChecked++
		doc, err := ParseCatalogDocument(item.Document)
		if err != nil {
			report.AddIssue(fmt.Sprintf("cross-sale %d", item.ID), "%v", err)
			continue
		}
		if _, found := AssignPricingCategories(doc); !found {
			report.AddIssue(fmt.Sprintf("cross-sale %d", item.ID), "no default pricing category")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"remote_activities": report.RemoteActivities,
		"products":          report.ProductsChecked,
		"activities":        report.ActivitiesChecked,
		"cross_sale":        report.CrossSaleChecked,
		"issues":            len(report.Issues),
	}).Info("Catalog audit finished")

	return report, nil
}

func (s *CatalogAuditService) auditActivity(ctx context.Context, report *models.CatalogAuditReport, remote map[int64]string, activityID int64) {
	subject := fmt.Sprintf("activity %d", activityID)

	if _, ok := remote[activityID]; !ok {
		report.AddIssue(subject, "not offered by vendor %d", s.vendorID)
	}

	activity, err := s.resolver.FetchActivity(ctx, activityID)
	if err != nil {
		report.AddIssue(subject, "%v", err)
		return
	}

	if _, err := s.resolver.ResolvePricingCategories(activity.Document); err != nil {
		report.AddIssue(subject, "%v", err)
	}
}

// SearchActivities pages through the vendor's activities and returns their
// titles keyed by id.
func (s *CatalogAuditService) SearchActivities(ctx context.Context) (map[int64]string, error) {
	filter := map[string]interface{}{}
	if s.vendorID > 0 {
		filter["vendorIds"] = []int64{s.vendorID}
	}

	activities := make(map[int64]string)
	pages := 0

	pager := s.client.PaginatedPost(ctx, bokun.ActivitySearchPath, filter, nil, "items")
	for pager.Next() {
		pages++

		var page struct {
			Items []struct {
				ID    json.Number `json:"id"`
				Title string      `json:"title"`
			} `json:"items"`
		}
		if err := pager.Response().Decode(&page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			id, err := item.ID.Int64()
			if err != nil {
				continue
			}
			activities[id] = item.Title
		}
	}
	if err := pager.Err(); err != nil {
		return nil, fmt.Errorf("failed to search vendor activities: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"vendor_id":  s.vendorID,
		"pages":      pages,
		"activities": len(activities),
	}).Debug("Vendor activities loaded")

	return activities, nil
}

func sortedActivityIDs(variants map[models.VariantKey]int64) []int64 {
	ids := make([]int64, 0, len(variants))
	for _, id := range variants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
