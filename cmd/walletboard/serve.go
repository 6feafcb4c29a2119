package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/walletboard/internal/api"
	"github.com/mtlprog/walletboard/internal/config"
	"github.com/mtlprog/walletboard/internal/export"
	"github.com/mtlprog/walletboard/internal/metrics"
	"github.com/mtlprog/walletboard/internal/store"
	"github.com/mtlprog/walletboard/internal/tokens"
	"github.com/mtlprog/walletboard/internal/worker"
)

func runServe(c *cli.Context) error {
	ctx, stop := context.WithCancel(c.Context)
	defer stop()

	cfg := config.Load()
	setupLogger(cfg)

	wallet := cfg.ActiveWallet()
	if wallet == "" {
		return errors.New("WALLETS is required")
	}

	svc, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	m := metrics.New()
	tokenFeed, err := svc.newFeed(m)
	if err != nil {
		return err
	}

	// Token list pipeline for the displayed wallet
	model := tokens.NewModel(svc.catalog, svc.currency)
	pipeline := tokens.NewPipeline(model, svc.hidden, wallet)
	svc.catalog.OnChange(pipeline.ServersChanged)

	updates, unsubscribe := pipeline.Subscribe()
	defer unsubscribe()
	go func() {
		for u := range updates {
			m.ObserveUpdate(len(u.Snapshot.Tokens()))
		}
	}()

	go func() {
		if err := pipeline.Run(ctx); err != nil {
			slog.Error("tokens pipeline failed", "error", err)
			stop()
		}
	}()

	// Start workers
	ledger := worker.NewLedger(svc.currency)
	history := store.NewPgBalanceHistory(svc.db)
	refreshWorker := worker.NewRefreshWorker(tokenFeed, pipeline, ledger, svc.currency, cfg.Wallets, cfg.RefreshInterval, m).
		WithHistory(history)
	go refreshWorker.Run(ctx)

	if cfg.SpreadsheetID != "" && cfg.GoogleCredentials != "" {
		writer, err := export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentials)
		if err != nil {
			return err
		}
		exportWorker := worker.NewExportWorker(pipeline, export.NewService(writer), cfg.ExportInterval)
		go exportWorker.Run(ctx)
	} else {
		slog.Info("SPREADSHEET_ID or GOOGLE_CREDENTIALS_JSON not set, sheet export disabled")
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, server catalog endpoints are unprotected")
	}

	// Start HTTP server
	srv := api.NewServer(
		cfg.HTTPPort,
		api.NewHandler(pipeline, ledger, m),
		api.NewServerHandler(svc.catalog),
		api.NewHistoryHandler(history),
		m,
		cfg.AdminAPIKey,
	)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort, "wallet", wallet)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
