package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"invoice-intake-backend/config"
	"invoice-intake-backend/controllers"
	"invoice-intake-backend/database"
	"invoice-intake-backend/logger"
	"invoice-intake-backend/middlewares"
	"invoice-intake-backend/notifier"
	"invoice-intake-backend/routes"
)

func main() {
	cfg := config.Load()

	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	// ---- Store (opened once, closed on shutdown)
	store, err := database.Open(cfg.StoreBackend, cfg.DatabaseDSN, cfg.StoreFile)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("could not open store")
	}

	// ---- Notifier (SMTP when configured, log-only otherwise)
	var notify notifier.Notifier
	if cfg.SMTPConfigured() {
		notify, err = notifier.NewMailer(notifier.Config{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could not build mailer")
		}
	} else {
		log.Info().Msg("SMTP not configured, invoice notifications will be logged")
		notify = notifier.NewLogNotifier(log.Logger)
	}

	invoices := controllers.NewInvoiceController(store, notify, cfg.InvoiceEmail)

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Idempotency-Key",
	}))

	// Global rate limiter (keyed by client IP)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	routes.Register(app, invoices)

	// ---- Shutdown: stop accepting requests, then flush/close the store
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("invoice intake service listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("store close failed")
	}
}
