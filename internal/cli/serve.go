package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/parley-labs/parley/internal/api/handlers"
	"github.com/parley-labs/parley/internal/config"
	"github.com/parley-labs/parley/internal/extract"
	"github.com/parley-labs/parley/internal/jobs"
	"github.com/parley-labs/parley/internal/openai"
	"github.com/parley-labs/parley/internal/search"
	"github.com/parley-labs/parley/internal/secrets"
	"github.com/parley-labs/parley/internal/server"
	"github.com/parley-labs/parley/internal/service"
	"github.com/parley-labs/parley/internal/storage"
	"github.com/parley-labs/parley/internal/store"
	"github.com/parley-labs/parley/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the parley chat history API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-sweeper", false, "Disable the cascade sweeper background worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	recordStore := store.NewPostgres(pool)

	var embedder search.Embedder
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
		log.Println("embeddings enabled")
	}
	index := search.NewIndex(pool, embedder)
	if err := index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("failed to ensure search index: %w", err)
	}

	var extractor service.TextExtractor
	if cfg.HasExtractor() {
		extractor = extract.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorAPIKey)
		log.Println("remote text extraction enabled")
	} else {
		extractor = extract.PlainTextExtractor{}
	}

	var archive service.BlobArchive
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	}

	cascadePool, err := ants.NewPool(cfg.CascadeWorkers)
	if err != nil {
		return fmt.Errorf("failed to create cascade worker pool: %w", err)
	}
	defer cascadePool.Release()

	secretStore := secrets.NewStore(recordStore)

	threadSvc := service.NewThreadService(recordStore, index, cascadePool)
	messageSvc := service.NewMessageService(recordStore)
	documentSvc := service.NewDocumentService(service.DocumentServiceConfig{
		Store:     recordStore,
		Index:     index,
		Extractor: extractor,
		Archive:   archive,
		MaxBytes:  cfg.MaxUploadDocumentSize,
		ChunkCfg: service.ChunkConfig{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap(),
		},
	})
	citationSvc := service.NewCitationService(recordStore)
	extensionSvc := service.NewExtensionService(recordStore, secretStore)
	promptSvc := service.NewPromptService(recordStore)
	reportingSvc := service.NewReportingService(recordStore)

	var sweeper *jobs.Worker
	noSweeper, _ := cmd.Flags().GetBool("no-sweeper")
	if !noSweeper {
		sweeper = jobs.NewWorker(jobs.NewCascadeSweeper(recordStore, threadSvc), time.Minute)
		go sweeper.Start(ctx)
		log.Println("cascade sweeper started")
	}

	router := server.NewRouter(server.RouterConfig{
		ThreadHandler:    handlers.NewThreadHandler(threadSvc),
		MessageHandler:   handlers.NewMessageHandler(messageSvc, threadSvc),
		DocumentHandler:  handlers.NewDocumentHandler(documentSvc, threadSvc),
		CitationHandler:  handlers.NewCitationHandler(citationSvc),
		ExtensionHandler: handlers.NewExtensionHandler(extensionSvc),
		PromptHandler:    handlers.NewPromptHandler(promptSvc),
		ReportingHandler: handlers.NewReportingHandler(reportingSvc),
		MaxBodyBytes:     cfg.MaxUploadDocumentSize + 1024*1024,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
