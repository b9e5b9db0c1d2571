package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"obamixscraper/config"
	"obamixscraper/internal/export"
	"obamixscraper/internal/scraper/browser"
	"obamixscraper/internal/scraper/extract"
	"obamixscraper/internal/scraper/models"
	"obamixscraper/internal/scraper/walk"
	"obamixscraper/internal/storage/repositories"
	"obamixscraper/metrics"
	"obamixscraper/pkg/dbconnect"
	"obamixscraper/pkg/dbconnect/migration"
	"obamixscraper/pkg/dbconnect/postgres"
	"obamixscraper/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()
	log := logger.Log

	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			log.Fatal("loading config file", zap.String("path", path), zap.Error(err))
		}
	}
	if cfg.Scraper.MetricsAddr != "" {
		metrics.Serve(cfg.Scraper.MetricsAddr)
		log.Info("metrics listening", zap.String("addr", cfg.Scraper.MetricsAddr))
	}

	knownSKUs, err := config.LoadKnownSKUs(cfg.Scraper.KnownSKUFile)
	if err != nil {
		log.Fatal("loading known SKUs", zap.Error(err))
	}
	if len(knownSKUs) > 0 {
		log.Info("light mode enabled for known SKUs", zap.Int("count", len(knownSKUs)))
	}

	var database dbconnect.Database = postgres.NewPgConnector(cfg.Postgres)
	db, err := database.Connect()
	if err != nil {
		log.Fatal("connecting to Postgres", zap.Error(err))
	}
	defer db.Close()

	repo := repositories.NewProductRepository(db, log)
	var migrator migration.SchemaMigrator = repo
	if err := migrator.UpMigration(db); err != nil {
		log.Fatal("migrating schema", zap.Error(err))
	}

	session, err := browser.StartSession(cfg.Scraper.Headless)
	if err != nil {
		log.Fatal("starting browser session", zap.Error(err))
	}
	defer session.Close()

	page := session.Page()
	if err := page.Navigate(cfg.Scraper.LoginURL); err != nil {
		log.Fatal("opening login page", zap.Error(err))
	}
	promptLogin(os.Stdout, os.Stdin)
	if err := page.Navigate(cfg.Scraper.ProductsURL); err != nil {
		log.Fatal("opening products page", zap.Error(err))
	}

	ctx := context.Background()
	run := &metrics.RunMetrics{}

	walker := walk.NewWalker(page, extract.NewExtractor(page, log), log, walk.Options{
		PageLimit: cfg.Scraper.PageLimit,
		KnownSKUs: knownSKUs,
		RowDelay:  cfg.Scraper.RowDelay,
		PageDelay: cfg.Scraper.PageDelay,
		OnPage: func(records []models.ProductRecord, pageNum int) {
			run.PagesWalked.Add(1)
			// Incremental checkpoint so an interrupted run keeps every
			// finished page.
			if _, err := repo.SaveAll(ctx, records); err != nil {
				log.Error("checkpoint save failed", zap.Int("page", pageNum), zap.Error(err))
			}
		},
	})

	records, runErr := walker.Run(ctx)
	if runErr != nil {
		log.Error("traversal aborted, keeping partial results", zap.Error(runErr))
	}

	for _, record := range records {
		run.RowsScraped.Add(1)
		if record.ScrapeError != "" {
			run.RowsFailed.Add(1)
		}
		if record.KnownSKU {
			run.LightRecords.Add(1)
		}
	}

	if len(records) == 0 {
		log.Info("no products collected")
		return
	}

	if err := export.WriteWorkbook(cfg.Scraper.ExportPath, records); err != nil {
		log.Error("xlsx export failed", zap.Error(err))
	} else {
		log.Info("xlsx exported", zap.String("path", cfg.Scraper.ExportPath))
	}

	persisted, err := repo.SaveAll(ctx, records)
	if err != nil {
		log.Error("final save failed", zap.Error(err))
	}

	log.Info("scrape finished",
		zap.Int32("pages", run.PagesWalked.Load()),
		zap.Int32("rows", run.RowsScraped.Load()),
		zap.Int32("failures", run.RowsFailed.Load()),
		zap.Int32("light_mode", run.LightRecords.Load()),
		zap.Int("persisted", persisted),
	)

	if runErr != nil {
		os.Exit(1)
	}
}

// promptLogin blocks until the operator finishes the CAPTCHA login in the
// opened browser window.
func promptLogin(w io.Writer, r io.Reader) {
	fmt.Fprintln(w, "[Login] Resolva o CAPTCHA e faça login no navegador aberto. Pressione ENTER para continuar...")
	bufio.NewReader(r).ReadString('\n')
}
