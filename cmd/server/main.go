package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shivangsaraswat/certiflow/internal/api"
	"github.com/shivangsaraswat/certiflow/internal/attachment"
	"github.com/shivangsaraswat/certiflow/internal/config"
	"github.com/shivangsaraswat/certiflow/internal/dispatcher"
	"github.com/shivangsaraswat/certiflow/internal/janitor"
	"github.com/shivangsaraswat/certiflow/internal/metrics"
	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/secrets"
	"github.com/shivangsaraswat/certiflow/internal/status"
	"github.com/shivangsaraswat/certiflow/internal/store"
	"github.com/shivangsaraswat/certiflow/internal/transport"
)

func main() {

	// ------------------------------------------------
	// Logger
	// ------------------------------------------------
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ------------------------------------------------
	// Config
	// ------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ------------------------------------------------
	// Root Context + Shutdown
	// ------------------------------------------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	// ------------------------------------------------
	// Database
	// ------------------------------------------------
	db, err := store.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	// ------------------------------------------------
	// Metrics
	// ------------------------------------------------
	metrics.Init()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Transport Resolver (decrypts per-group SMTP creds)
	// ------------------------------------------------
	codec, err := secrets.NewCodec(cfg.TransportSecretKey)
	if err != nil {
		logger.Fatal("invalid transport secret key", zap.Error(err))
	}

	transports := transport.NewResolver(db, codec)

	// ------------------------------------------------
	// Mail Dispatcher
	// ------------------------------------------------
	disp := dispatcher.New(dispatcher.Options{
		Jobs:        db,
		Groups:      db,
		Transports:  transports,
		Attachments: attachment.NewResolver(db),
		Fetcher:     attachment.NewFetcher(cfg.FetchTimeout),
		NewSender: func(tc models.TransportConfig) dispatcher.Sender {
			return transport.NewSMTPSender(tc, cfg.SendTimeout)
		},
		Log:               logger,
		PacingInterval:    cfg.PacingInterval,
		PersistMaxElapsed: cfg.PersistMaxElapsed,
	})

	// ------------------------------------------------
	// Janitor (fails jobs stuck in processing)
	// ------------------------------------------------
	jan := janitor.New(db, logger, cfg.JanitorInterval, cfg.StaleJobGrace)
	go jan.Run(ctx)

	// ------------------------------------------------
	// HTTP API Server
	// ------------------------------------------------
	apiHandler := &api.Handler{
		Store:      db,
		Status:     status.NewFacade(db),
		Transports: transports,
		Jobs:       disp,
		Log:        logger,
		BaseCtx:    ctx,
	}

	apiMux := http.NewServeMux()
	apiHandler.Register(apiMux)

	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: apiMux,
	}

	go func() {
		logger.Info("api server started", zap.String("port", cfg.APIPort))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api server error", zap.Error(err))
		}
	}()

	// ------------------------------------------------
	// Wait for shutdown
	// ------------------------------------------------
	<-ctx.Done()

	logger.Info("shutting down services...")

	// Let in-flight jobs run to their terminal state; their pacing and
	// persistence waits are interrupted by ctx, anything abandoned is
	// picked up by the janitor on the next start.
	disp.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}

	logger.Info("application shutdown complete")
}
