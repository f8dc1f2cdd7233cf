package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fishandtips/newsletter/api"
	"github.com/fishandtips/newsletter/content"
	"github.com/fishandtips/newsletter/datastore"
	"github.com/fishandtips/newsletter/dispatch"
	"github.com/fishandtips/newsletter/email"
	"github.com/fishandtips/newsletter/migrations"
	rh "github.com/fishandtips/newsletter/routehandlers"
	"github.com/fishandtips/newsletter/scheduler"
	"github.com/fishandtips/newsletter/scoring"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"golang.org/x/time/rate"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "user=postgres password=password dbname=fishandtips host=localhost port=5432 sslmode=disable"
	defaultCMSBaseURL  = "https://cms.fishandtips.it"
	defaultFromEmail   = "newsletter@fishandtips.it"
	defaultFromName    = "FishandTips"
	defaultSiteBaseURL = "https://www.fishandtips.it"
	schedulerTimezone  = "Europe/Rome"
	dbPingTimeout      = 5 * time.Second
	shutdownTimeout    = 15 * time.Second
	dbMaxOpenConns     = 25
	dbMaxIdleConns     = 25
	dbConnMaxLifetime  = 5 * time.Minute

	// Provider pacing for the two bulk paths; the scheduled cadence
	// runs are paced more conservatively than the ad-hoc bulk send.
	bulkSendsPerSecond   = 10
	cohortSendsPerSecond = 5
)

type config struct {
	port             string
	databaseURL      string
	cmsBaseURL       string
	cmsAPIToken      string
	brevoAPIKey      string
	fromEmail        string
	fromName         string
	siteBaseURL      string
	sessionJWTSecret string
	schedulerEnabled bool
}

func main() {
	cfg := loadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	userRepo := datastore.NewUserRepository(db)
	activityRepo := datastore.NewActivityRepository(db)

	cmsClient := content.NewClient(cfg.cmsBaseURL, cfg.cmsAPIToken, logger)
	selector := scoring.NewSelector(cmsClient, logger)

	var provider email.Provider
	if cfg.brevoAPIKey != "" {
		provider = email.NewBrevoProvider(cfg.brevoAPIKey, cfg.fromEmail, cfg.fromName, logger)
	} else {
		log.Println("WARNING: BREVO_API_KEY not set, using mock email provider.")
		provider = email.NewMockProvider(logger)
	}

	dispatchService := dispatch.NewService(
		userRepo,
		activityRepo,
		selector,
		provider,
		rate.NewLimiter(rate.Limit(bulkSendsPerSecond), 1),
		rate.NewLimiter(rate.Limit(cohortSendsPerSecond), 1),
		cfg.fromEmail,
		cfg.fromName,
		cfg.siteBaseURL,
		logger,
	)

	location, err := time.LoadLocation(schedulerTimezone)
	if err != nil {
		log.Fatalf("Failed to load scheduler timezone %s: %v", schedulerTimezone, err)
	}
	newsletterScheduler := scheduler.New(dispatchService, activityRepo, location, nil, logger)

	if cfg.schedulerEnabled {
		newsletterScheduler.Start(context.Background())
		defer newsletterScheduler.Stop()
	} else {
		log.Println("WARNING: scheduler disabled via SCHEDULER_ENABLED=false.")
	}

	newsletterHandler := rh.NewNewsletterHandler(dispatchService)
	schedulerHandler := rh.NewSchedulerHandler(newsletterScheduler)

	router := api.SetupRoutes(newsletterHandler, schedulerHandler, []byte(cfg.sessionJWTSecret))

	startServer(cfg.port, router)
}

func loadConfig() config {
	cfg := config{
		port:             envOrDefault("PORT", defaultPort),
		databaseURL:      os.Getenv("DB_CONNECTION_STRING"),
		cmsBaseURL:       envOrDefault("CMS_BASE_URL", defaultCMSBaseURL),
		cmsAPIToken:      os.Getenv("CMS_API_TOKEN"),
		brevoAPIKey:      os.Getenv("BREVO_API_KEY"),
		fromEmail:        envOrDefault("MAIL_FROM_EMAIL", defaultFromEmail),
		fromName:         envOrDefault("MAIL_FROM_NAME", defaultFromName),
		siteBaseURL:      envOrDefault("SITE_BASE_URL", defaultSiteBaseURL),
		sessionJWTSecret: os.Getenv("SESSION_JWT_SECRET"),
		schedulerEnabled: os.Getenv("SCHEDULER_ENABLED") != "false",
	}

	if cfg.databaseURL == "" {
		cfg.databaseURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}
	if cfg.cmsAPIToken == "" {
		log.Println("WARNING: CMS_API_TOKEN not set. Article fetches may be rejected.")
	}
	if cfg.sessionJWTSecret == "" {
		log.Println("WARNING: SESSION_JWT_SECRET not set. All authenticated requests will fail.")
	}

	return cfg
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database connection and migrations successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
