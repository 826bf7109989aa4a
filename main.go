// Cat-Corner/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/meeshellyo/Cat-Corner/config"
	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/handlers"
	"github.com/meeshellyo/Cat-Corner/lexicon"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
)

type Application struct {
	db          *database.DatabaseService
	lexicon     *lexicon.Lexicon
	rateLimiter *models.RateLimiter
	validate    *validator.Validate
	storage     models.StorageService
	logger      *slog.Logger
	uploadDir   string
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService    { return a.db }
func (a *Application) Lexicon() *lexicon.Lexicon        { return a.lexicon }
func (a *Application) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *Application) Validator() *validator.Validate   { return a.validate }
func (a *Application) Storage() models.StorageService   { return a.storage }
func (a *Application) Logger() *slog.Logger             { return a.logger }
func (a *Application) UploadDir() string                { return a.uploadDir }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.LoadDotenv()

	// --- External Configuration ---
	addr := utils.GetEnv("CC_ADDR", ":8080")
	dbPath := utils.GetEnv("CC_DB_PATH", "./catcorner.db")
	lexiconPath := utils.GetEnv("CC_LEXICON_PATH", "./bad_words.txt")
	seedPath := utils.GetEnv("CC_SEED_PATH", "./categories.yaml")
	uploadDir := utils.GetEnv("CC_UPLOAD_DIR", "./uploads")

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("CC_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid CC_RATE_EVERY duration, using default", "value", utils.GetEnv("CC_RATE_EVERY", ""), "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("CC_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid CC_RATE_BURST integer, using default", "value", utils.GetEnv("CC_RATE_BURST", ""), "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("CC_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("CC_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	lex, err := lexicon.Load(lexiconPath)
	if err != nil {
		logger.Error("Failed to load lexicon", "path", lexiconPath, "error", err)
		os.Exit(1)
	}
	logger.Info("Lexicon loaded", "path", lexiconPath, "terms", lex.Len())

	dbService, err := database.InitDB(dbPath, seedPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err := handlers.LoadTemplates(); err != nil {
		logger.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Error("FATAL: Could not create uploads directory", "error", err)
		os.Exit(1)
	}

	// --- Storage Service Init ---
	var storageService models.StorageService
	if utils.GetEnv("CC_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("CC_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("CC_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("CC_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("CC_S3_BUCKET", "")
		region := utils.GetEnv("CC_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("CC_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("CC_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		storageService = &utils.LocalStorage{UploadDir: uploadDir}
		logger.Info("Local Storage initialized", "dir", uploadDir)
	}

	app := &Application{
		db:          dbService,
		lexicon:     lex,
		rateLimiter: models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		validate:    validator.New(),
		storage:     storageService,
		logger:      logger,
		uploadDir:   uploadDir,
	}

	// Expired sessions pile up otherwise.
	go func() {
		for range time.Tick(1 * time.Hour) {
			if n, err := dbService.PruneSessions(); err != nil {
				logger.Error("Session prune failed", "error", err)
			} else if n > 0 {
				logger.Info("Pruned expired sessions", "count", n)
			}
		}
	}()

	mux := handlers.SetupRouter(app)

	var s3PublicURL string
	if s3Store, ok := storageService.(*utils.S3Storage); ok {
		s3PublicURL = s3Store.PublicURL
	}

	finalHandler := handlers.AppContextMiddleware(app,
		handlers.SessionMiddleware(app,
			handlers.CSRFMiddleware(
				handlers.NewSecurityHeadersMiddleware(s3PublicURL)(mux))))

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: addr, Handler: finalHandler}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Cat Corner started successfully",
		"version", config.AppVersion,
		"address", addr,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
