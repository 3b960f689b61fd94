package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"wedding-backend/config"
	"wedding-backend/controllers"
	"wedding-backend/routes"
	"wedding-backend/services"
)

func buildDirectory(cfg *config.Config, log zerolog.Logger) services.GuestDirectory {
	switch cfg.DirectoryBackend {
	case "notion":
		if cfg.NotionAPIKey == "" || cfg.NotionDatabaseID == "" {
			log.Fatal().Msg("DIRECTORY_BACKEND=notion requires NOTION_API_KEY and NOTION_GUESTS_DATABASE_ID")
		}
		return services.NewNotionDirectory(cfg.NotionAPIKey, cfg.NotionDatabaseID, cfg.NotionHTTPTimeout, log)
	case "mysql":
		if err := config.ConnectDatabase(cfg.SeedDemoGuests); err != nil {
			log.Fatal().Err(err).Msg("database connect failed")
		}
		return services.NewGormDirectory(config.DB)
	default:
		log.Fatal().Str("backend", cfg.DirectoryBackend).Msg("unknown DIRECTORY_BACKEND")
		return nil
	}
}

func buildKV(cfg *config.Config, log zerolog.Logger) services.KeyValueStore {
	switch cfg.KVBackend {
	case "redis":
		pool, err := config.InitRedis()
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		return services.NewRedisKV(pool)
	case "mysql":
		if config.DB == nil {
			if err := config.ConnectDatabase(cfg.SeedDemoGuests); err != nil {
				log.Fatal().Err(err).Msg("database connect failed")
			}
		}
		return services.NewGormKV(config.DB)
	case "memory":
		log.Warn().Msg("KV_BACKEND=memory: duplicate protection is per-process only")
		return services.NewMemoryKV()
	default:
		log.Fatal().Str("backend", cfg.KVBackend).Msg("unknown KV_BACKEND")
		return nil
	}
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg(".env not found or couldn't load it; continuing with environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	directory := buildDirectory(cfg, logger)
	kv := buildKV(cfg, logger)

	events := services.NewEventService(cfg.EventStart, cfg.EventEnd, cfg.OverrideEventState, logger)
	sessions := services.NewSessionService(kv, directory, cfg.SessionTTL, logger)
	rsvp := services.NewRsvpService(directory, kv, events, logger)

	guestController := controllers.NewGuestController(rsvp, sessions, cfg.CookieSecure, logger)
	openRsvpController := controllers.NewOpenRsvpController(rsvp, logger)
	eventController := controllers.NewEventController(events)

	router := routes.SetupRouter(guestController, openRsvpController, eventController, logger)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).
			Str("directory", cfg.DirectoryBackend).
			Str("kv", cfg.KVBackend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped gracefully")
}
