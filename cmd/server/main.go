package main

import (
	"fmt"
	"log"

	"expenso/internal/config"
	"expenso/internal/email/noop"
	"expenso/internal/email/ses"
	"expenso/internal/handler"
	"expenso/internal/port"
	"expenso/internal/recognition"
	"expenso/internal/repository/postgres"
	"expenso/internal/router"
	"expenso/internal/service"
	s3storage "expenso/internal/storage/s3"
	redisstore "expenso/internal/store/redis"
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
	fileRepo := postgres.NewFileMetaRepo(db)
	lineRepo := postgres.NewExpenseLineRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	taxCodeRepo := postgres.NewTaxCodeRepo(db)
	currencyRepo := postgres.NewCurrencyRepo(db)

	// Initialize storage and correlation store
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	resultStore, err := redisstore.NewResultStore(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize correlation store: %w", err)
	}

	emailSender, err := newEmailSender(cfg)
	if err != nil {
		return err
	}

	// Initialize services
	recognizer := recognition.NewClient(&cfg.Recognition, resultStore)
	poller := service.NewResultPoller(resultStore, cfg.Recognition.PollInterval(), cfg.Recognition.PollDeadline())
	materializer := service.NewLineMaterializer(lineRepo, categoryRepo, taxCodeRepo, currencyRepo)
	fileSvc := service.NewFileService(fileRepo, s3Client, &cfg.S3)
	batchSvc := service.NewBatchService(
		fileRepo, lineRepo, s3Client, recognizer,
		poller, materializer, emailSender, &cfg.Recognition,
	)
	defer batchSvc.Shutdown()
	lineSvc := service.NewLineService(lineRepo)
	catalogSvc := service.NewCatalogService(categoryRepo, taxCodeRepo, currencyRepo)

	// Initialize handlers
	fileH := handler.NewFileHandler(fileSvc)
	batchH := handler.NewBatchHandler(batchSvc)
	callbackH := handler.NewCallbackHandler(resultStore, &cfg.Recognition)
	lineH := handler.NewLineHandler(lineSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	healthH := handler.NewHealthHandler(db, resultStore)

	// Setup router
	r := router.Setup(cfg, fileH, batchH, callbackH, lineH, catalogH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func newEmailSender(cfg *config.Config) (port.EmailSender, error) {
	switch cfg.Email.Provider {
	case "ses":
		sender, err := ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES sender: %w", err)
		}
		return sender, nil
	default:
		return noop.NewNoopSender(), nil
	}
}
