package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"billing/internal/amqp"
	"billing/internal/auth"
	"billing/internal/billscan"
	"billing/internal/config"
	apphttp "billing/internal/http"
	applog "billing/internal/log"
	"billing/internal/services"
	"billing/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Ledger events are best-effort: a broker that is down only disables
	// the export pipeline, never the ledger.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	tokens, err := auth.NewTokenStore(cfg.TokenPath)
	if err != nil {
		logger.Error("Failed to initialize token store", "error", err)
		os.Exit(1)
	}

	var scanner *billscan.Client
	if cfg.BillScanURL != "" {
		scanner = billscan.NewClient(cfg.BillScanURL, tokens, cfg.BillScanTimeout)
		logger.Info("Bill analysis enabled", "url", cfg.BillScanURL)
	} else {
		logger.Info("Bill analysis disabled - no BILLSCAN_URL provided")
	}

	accounts := services.NewAccountService(repo)
	ledger := services.NewLedgerService(repo, publisher)
	summaries := services.NewSummaryService(repo)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + cfg.Port,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	}, accounts, ledger, summaries, scanner, tokens)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting billing server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Server stopped gracefully")
}
