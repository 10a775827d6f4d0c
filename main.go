package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dentist-scraper/browser"
	"dentist-scraper/config"
	"dentist-scraper/scraper/maps"
	"dentist-scraper/services"
	"dentist-scraper/storage"
	"dentist-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Dentist Scraping System starting ===")
	logger.Info("Config — query: %q | max results: %d | max reviews: %d | storage: %s",
		cfg.SearchQuery, cfg.MaxResults, cfg.MaxReviews, cfg.StorageDriver)

	lexicon, err := services.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		logger.Error("Failed to load lexicon: %v", err)
		os.Exit(1)
	}
	analyzer := services.NewMentionAnalyzer(
		services.NewMatcher(lexicon, cfg.ContextRadius),
		services.NewVaderScorer(),
	)

	jsonWriter, err := storage.NewJSONWriter(cfg.JSONOutputPath)
	if err != nil {
		logger.Error("Failed to create JSON writer: %v", err)
		os.Exit(1)
	}
	defer jsonWriter.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	sqlWriter, err := openSQLWriter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open %s storage: %v", cfg.StorageDriver, err)
		logger.Error("Set STORAGE_DRIVER=none to write files only")
		os.Exit(1)
	}
	if sqlWriter != nil {
		defer sqlWriter.Close()
	}

	driver, err := browser.NewChromeDriver(cfg, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		os.Exit(1)
	}
	session := maps.NewSession(driver, cfg, analyzer, logger)
	result := session.Run(ctx)
	driver.Close()

	cleaner := services.NewCleaner(logger)
	result.Listings = cleaner.Clean(result.Listings)

	sinks := []struct {
		name   string
		path   string
		writer storage.ListingWriter
	}{
		{"JSON", cfg.JSONOutputPath, jsonWriter},
		{"CSV", cfg.CSVOutputPath, csvWriter},
	}
	for _, sink := range sinks {
		if err := sink.writer.Write(result.Listings); err != nil {
			logger.Error("%s write failed: %v", sink.name, err)
			continue
		}
		logger.Info("%d listings saved to %s", len(result.Listings), sink.path)
	}

	reportListings := result.Listings
	if sqlWriter != nil {
		// detached so an interrupted scrape is still persisted
		persistCtx := context.WithoutCancel(ctx)
		if err := sqlWriter.WriteRun(persistCtx, result); err != nil {
			logger.Error("%s write failed: %v", cfg.StorageDriver, err)
		} else if stored, err := sqlWriter.FetchListings(persistCtx, result.RunID); err != nil {
			logger.Error("Failed to fetch listings from DB for insights: %v", err)
		} else {
			logger.Info("Run %s stored in %s", result.RunID, cfg.StorageDriver)
			reportListings = stored
		}
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(result.Processed, reportListings)
	insightSvc.Print(report)

	fmt.Printf("  Done. Processed %d | Retained %d | JSON → %s\n\n",
		result.Processed, len(result.Listings), cfg.JSONOutputPath)
}

// openSQLWriter returns nil when no database sink is configured.
func openSQLWriter(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.SQLWriter, error) {
	switch cfg.StorageDriver {
	case "", "none":
		return nil, nil
	case storage.DriverPostgres:
		return storage.NewSQLWriter(ctx, storage.DriverPostgres, cfg.DSN(), logger)
	case "sqlite", storage.DriverSQLite:
		return storage.NewSQLWriter(ctx, storage.DriverSQLite, cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
