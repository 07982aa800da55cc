package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/transfer-booking-backend/internal/config"
	"github.com/smarttransit/transfer-booking-backend/internal/database"
)

func main() {
	var dbURLFlag string
	var days int
	var dryRun bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.IntVar(&days, "days", 90, "delete request logs older than this many days")
	flag.BoolVar(&dryRun, "dry-run", false, "print the cutoff and exit without deleting")
	flag.Parse()

	// .env in the working directory is optional
	_ = godotenv.Load()

	if days < 1 {
		log.Fatal("-days must be at least 1")
	}

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	fmt.Printf("Cutoff: %s (%d days)\n", cutoff.Format(time.RFC3339), days)
	if dryRun {
		return
	}

	// Minimal database config without loading the full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := database.NewRequestLogRepository(db, logger).DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}

	fmt.Printf("Deleted %d request log rows.\n", deleted)
}
