package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/walletboard/internal/chain"
	"github.com/mtlprog/walletboard/internal/config"
	"github.com/mtlprog/walletboard/internal/database"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/evm"
	"github.com/mtlprog/walletboard/internal/feed"
	"github.com/mtlprog/walletboard/internal/metrics"
	"github.com/mtlprog/walletboard/internal/store"
	"github.com/mtlprog/walletboard/internal/ticker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("walletboard failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "walletboard",
		Usage:  "multi-chain wallet token dashboard",
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "refresh balances and serve the HTTP API",
				Action: runServe,
			},
			exportCommand(),
			serversCommand(),
		},
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// services holds the long-lived dependencies shared by every command.
type services struct {
	cfg      config.Config
	currency domain.Currency
	db       *pgxpool.Pool
	catalog  *chain.Catalog
	hidden   *store.PgHiddenStore
	rpc      *evm.Pool
}

// open connects to the database, applies migrations and loads the server catalog.
func open(ctx context.Context, cfg config.Config) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	currency, err := domain.ParseCurrency(cfg.Currency)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, db, migrationsSub); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	catalog := chain.NewCatalog(store.NewPgCustomServerStore(db))
	if err := catalog.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	pool := evm.NewPool(cfg.RPCTimeout)
	catalog.OnChange(func() { pool.Sync(catalog.All()) })

	return &services{
		cfg:      cfg,
		currency: currency,
		db:       db,
		catalog:  catalog,
		hidden:   store.NewPgHiddenStore(db),
		rpc:      pool,
	}, nil
}

func (s *services) Close() {
	s.rpc.Close()
	s.db.Close()
}

// newFeed wires balance readers and tickers for the configured chains. m may be nil.
func (s *services) newFeed(m *metrics.Metrics) (*feed.Feed, error) {
	tracked, err := feed.LoadTokenList(s.cfg.TokenListPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("token list not found, tracking native coins only", "path", s.cfg.TokenListPath)
	case err != nil:
		return nil, err
	}

	coingecko := ticker.NewCoinGeckoClient(s.cfg.CoinGeckoURL, s.cfg.CoinGeckoDelay, s.cfg.CoinGeckoRetryMax)
	tickers := ticker.NewService(coingecko, store.NewPgTickerRepository(s.db), s.cfg.TickerCacheTTL)

	readers := func(md chain.Metadata) feed.BalanceReader { return s.rpc.Client(md) }
	return feed.New(s.catalog, readers, tickers, tracked, feed.Options{
		Enabled: lo.Map(s.cfg.EnabledChains, func(id uint64, _ int) chain.Server {
			return chain.Server(id)
		}),
		Currency:      s.currency,
		MaxConcurrent: s.cfg.MaxConcurrentFetches,
		RateLimit:     s.cfg.RPCRateLimit,
		Attempts:      3,
		Metrics:       m,
	}), nil
}
