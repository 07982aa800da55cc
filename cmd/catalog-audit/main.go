package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/config"
	"github.com/smarttransit/transfer-booking-backend/internal/database"
	"github.com/smarttransit/transfer-booking-backend/internal/services"
	"github.com/smarttransit/transfer-booking-backend/pkg/bokun"
)

// catalog-audit checks every local product against the vendor's Bokun
// activities and exits non-zero when something needs fixing.
func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall audit timeout")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	client, err := bokun.NewClient(bokun.Config{
		BaseURL:       cfg.Bokun.BaseURL,
		AccessKey:     cfg.Bokun.AccessKey,
		SecretKey:     cfg.Bokun.SecretKey,
		Timeout:       cfg.Bokun.Timeout,
		MaxGetRetries: cfg.Bokun.MaxGetRetries,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to create Bokun client: %v", err)
	}

	availability := services.NewAvailabilityService(client, nil, cfg.Bokun.Location(), logger)
	resolver := services.NewCatalogResolver(client, availability, logger)
	audit := services.NewCatalogAuditService(client, database.NewCatalogRepository(db), resolver, cfg.Bokun.VendorID, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := audit.Run(ctx)
	if err != nil {
		logger.Fatalf("Catalog audit failed: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Fatalf("Failed to write report: %v", err)
		}
	} else {
		for _, issue := range report.Issues {
			logger.Warn(issue.String())
		}
	}

	if !report.OK() {
		logger.Errorf("%d catalog issue(s) found", len(report.Issues))
		db.Close()
		os.Exit(1)
	}
	logger.Info("Catalog is consistent with Bokun")
}
