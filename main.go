package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/ontimenews/backend/config"
	"github.com/kevinaaaquil/ontimenews/backend/handlers"
	"github.com/kevinaaaquil/ontimenews/backend/logger"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/kevinaaaquil/ontimenews/backend/store"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", false)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().Str("config", cfg.Describe()).Msg("Starting OnTime News API")

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("MongoDB disconnect failed")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create indexes")
	}
	if cfg.AdminEmail != "" {
		if err := db.EnsureAdmin(ctx, cfg.AdminEmail); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap admin")
		}
		log.Info().Str("email", cfg.AdminEmail).Msg("Admin account ensured")
	}

	deps := handlers.Deps{
		Users:          db,
		Articles:       db,
		Publishers:     db,
		Notifications:  db,
		Tokens:         service.NewTokenService(cfg.JWTSecret),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		PublicURL:      cfg.PublicURL,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	}
	wireOptional(ctx, cfg, &deps, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}

// wireOptional connects the integrations that are configured. Each one left
// unset stays a nil interface so its routes report 503 or skip the side
// effect.
func wireOptional(ctx context.Context, cfg *config.Config, deps *handlers.Deps, log zerolog.Logger) {
	if cfg.StripeSecretKey != "" {
		gateway, err := service.NewStripeGateway(cfg.StripeSecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure Stripe")
		}
		deps.Payments = &service.Payments{Gateway: gateway, Currency: cfg.Currency}
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}

	if cfg.S3Bucket != "" {
		images, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure S3")
		}
		deps.Images = images
	} else {
		log.Warn().Msg("AWS_S3_BUCKET not set; image uploads are disabled")
	}

	if cfg.SMTPHost != "" {
		mailer, err := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure mailer")
		}
		deps.Notifier = mailer
	} else {
		log.Warn().Msg("SMTP_HOST not set; decline notifications are disabled")
	}
}
