package main

import (
	"fmt"
	"log"
	"net/http"

	"agridocs/internal/ai"
	"agridocs/internal/config"
	"agridocs/internal/email/noop"
	"agridocs/internal/email/ses"
	"agridocs/internal/handler"
	"agridocs/internal/ocr"
	"agridocs/internal/port"
	"agridocs/internal/repository/postgres"
	"agridocs/internal/router"
	"agridocs/internal/service"
	"agridocs/internal/storage/httpfetch"
	s3storage "agridocs/internal/storage/s3"

	// Register format parsers.
	_ "agridocs/internal/parser/docx"
	_ "agridocs/internal/parser/pdf"
	_ "agridocs/internal/parser/text"
	_ "agridocs/internal/parser/xlsx"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	recordRepo := postgres.NewExtractionRecordRepo(db)

	// Initialize storage
	fetcher := httpfetch.NewFetcher(cfg.Fetch)

	var storage port.ObjectStorage
	if cfg.S3.Region != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize OCR fallback
	var fallback *ocr.Fallback
	if cfg.OCR.Enabled {
		engine := ocr.NewTesseractEngine(cfg.OCR.Languages)
		rasterizer := ocr.NewRasterizer(cfg.OCR.PdftoppmPath)
		fallback = ocr.NewFallback(engine, rasterizer, cfg.OCR)
	}

	// Initialize AI post-processing
	var processor *ai.Processor
	if cfg.AI.APIKey != "" {
		client := ai.NewOpenAIClient(cfg.AI)
		processor = ai.NewProcessor(client, cfg.AI)
	} else {
		log.Println("main: no AI API key configured, tables will not be post-processed")
	}

	// Initialize alert sender
	var alerts port.AlertSender
	switch cfg.Email.Provider {
	case "ses":
		alerts, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.AlertTo)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		alerts = noop.NewNoopSender()
	}

	// Initialize services
	extractionSvc := service.NewExtractionService(
		recordRepo, fetcher, storage, fallback, processor, alerts,
		cfg.Budget, cfg.S3.ArtifactBucket,
	)

	// Initialize handlers
	extractionH := handler.NewExtractionHandler(extractionSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, extractionH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
