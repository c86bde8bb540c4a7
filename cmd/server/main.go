package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/agent"
	"github.com/pesio-ai/be-purchase-approvals/internal/config"
	"github.com/pesio-ai/be-purchase-approvals/internal/handler"
	"github.com/pesio-ai/be-purchase-approvals/internal/notify"
	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
	"github.com/pesio-ai/be-purchase-approvals/internal/service"
)

func main() {
	configPath := flag.String("config", "approvals.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := newLogger(cfg.Log)

	log.Info().
		Str("service", "be-purchase-approvals").
		Int("port", cfg.Server.Port).
		Msg("Starting Purchase Approvals Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := repository.Open(cfg.Server.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	log.Info().Str("path", cfg.Server.DatabasePath).Msg("Database opened")

	// Initialize repositories
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	if err := userRepo.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed users")
	}

	// Initialize agent collaborators
	composer := agent.NewComposer(cfg.Agent.OpenAIAPIKey, cfg.Agent.Model, log)
	notifier := notify.NewSlackNotifier(cfg.Notify.SlackWebhookURL, log)

	// Initialize services
	approvalService := service.NewApprovalService(approvalRepo, auditRepo, userRepo, log)
	agentService := service.NewAgentService(approvalRepo, auditRepo, composer, notifier, log)

	// Setup HTTP server
	httpHandler := handler.NewHTTPHandler(approvalService, agentService, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		out = zerolog.New(os.Stderr)
	}
	return out.Level(level).With().Timestamp().Logger()
}
