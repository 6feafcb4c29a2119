package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	HTTPPort             string
	AdminAPIKey          string
	CoinGeckoURL         string
	CoinGeckoDelay       time.Duration
	CoinGeckoRetryMax    int
	TickerCacheTTL       time.Duration
	RefreshInterval      time.Duration
	ExportInterval       time.Duration
	RPCTimeout           time.Duration
	MaxConcurrentFetches int
	RPCRateLimit         int
	Wallets              []string
	Currency             string
	TokenListPath        string
	EnabledChains        []uint64
	SpreadsheetID        string
	GoogleCredentials    string
	LogLevel             string
	LogFormat            string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:          envOrDefault("ADMIN_API_KEY", ""),
		CoinGeckoURL:         envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoDelay:       envOrDefaultDuration("COINGECKO_DELAY", 6*time.Second),
		CoinGeckoRetryMax:    envOrDefaultInt("COINGECKO_RETRY_MAX", 5),
		TickerCacheTTL:       envOrDefaultDuration("TICKER_CACHE_TTL", 5*time.Minute),
		RefreshInterval:      envOrDefaultDuration("REFRESH_INTERVAL", 1*time.Minute),
		ExportInterval:       envOrDefaultDuration("EXPORT_INTERVAL", 10*time.Minute),
		RPCTimeout:           envOrDefaultDuration("RPC_TIMEOUT", 10*time.Second),
		MaxConcurrentFetches: envOrDefaultInt("MAX_CONCURRENT_FETCHES", 8),
		RPCRateLimit:         envOrDefaultInt("RPC_RATE_LIMIT", 20),
		Wallets:              envList("WALLETS"),
		Currency:             envOrDefault("CURRENCY", "USD"),
		TokenListPath:        envOrDefault("TOKEN_LIST_PATH", "tokens.yaml"),
		EnabledChains:        envUintList("ENABLED_CHAINS"),
		SpreadsheetID:        envOrDefault("SPREADSHEET_ID", ""),
		GoogleCredentials:    envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		LogFormat:            envOrDefault("LOG_FORMAT", "text"),
	}
}

// ActiveWallet is the wallet whose token list is displayed, or "" if none.
func (c Config) ActiveWallet() string {
	if len(c.Wallets) == 0 {
		return ""
	}
	return c.Wallets[0]
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envUintList(key string) []uint64 {
	var out []uint64
	for _, p := range envList(key) {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			slog.Warn("invalid chain ID in env var, skipping", "key", key, "value", p)
			continue
		}
		out = append(out, n)
	}
	return out
}
