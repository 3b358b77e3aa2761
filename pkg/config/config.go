package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External collaborators
	MarketData MarketDataConfig
	Analyst    AnalystConfig
	Research   ResearchConfig

	// Funnel tunables
	Funnel FunnelConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration for the quote cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MarketDataConfig holds the quote/fundamentals provider configuration.
type MarketDataConfig struct {
	BaseURL string
	APIKey  string

	// RequestsPerSecond caps the provider call rate for one batch run.
	RequestsPerSecond float64
	// Burst is the limiter burst size.
	Burst int
}

// AnalystConfig holds the analysis-text provider configuration
// (an Anthropic-style messages endpoint).
type AnalystConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
}

// ResearchConfig holds the analyst-consensus research source.
type ResearchConfig struct {
	BaseURL string
}

// FunnelConfig holds the funnel tunables supplied by the driver.
type FunnelConfig struct {
	Strategy string // value, growth, balanced

	// Screening (T1)
	MinScore     float64
	TargetCount  int
	MaxSectorPct float64 // 0.0 ~ 1.0
	Concurrency  int

	// Triage (T2)
	MaxFinalists int

	// Conviction (T3)
	AnalysisBatchSize int

	// Construction (T4)
	MaxHoldings    int
	MinConviction  float64
	CashReservePct float64 // portfolio percent held back as cash

	// Rebalance
	SellThreshold     float64
	HoldThreshold     float64
	BuyThreshold      float64
	MaxSellsPerReview int
	MaxBuysPerReview  int
	MaxTurnoverPct    float64
	MinPositionPct    float64
	MaxPositionPct    float64
}

// Load reads configuration from environment variables. Only this function
// calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		MarketData: MarketDataConfig{
			BaseURL:           getEnv("MARKETDATA_BASE_URL", "https://api.marketdata.local/v1"),
			APIKey:            getEnv("MARKETDATA_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("MARKETDATA_RPS", 8),
			Burst:             getEnvAsInt("MARKETDATA_BURST", 4),
		},

		Analyst: AnalystConfig{
			Endpoint:  getEnv("ANALYST_ENDPOINT", "https://api.anthropic.com/v1/messages"),
			APIKey:    getEnv("ANALYST_API_KEY", ""),
			Model:     getEnv("ANALYST_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens: getEnvAsInt("ANALYST_MAX_TOKENS", 1024),
		},

		Research: ResearchConfig{
			BaseURL: getEnv("RESEARCH_BASE_URL", "https://research.marketdata.local"),
		},

		Funnel: FunnelConfig{
			Strategy:          getEnv("FUNNEL_STRATEGY", "balanced"),
			MinScore:          getEnvAsFloat("FUNNEL_MIN_SCORE", 55),
			TargetCount:       getEnvAsInt("FUNNEL_TARGET_COUNT", 50),
			MaxSectorPct:      getEnvAsFloat("FUNNEL_MAX_SECTOR_PCT", 0.25),
			Concurrency:       getEnvAsInt("FUNNEL_CONCURRENCY", 8),
			MaxFinalists:      getEnvAsInt("FUNNEL_MAX_FINALISTS", 20),
			AnalysisBatchSize: getEnvAsInt("FUNNEL_ANALYSIS_BATCH", 4),
			MaxHoldings:       getEnvAsInt("FUNNEL_MAX_HOLDINGS", 15),
			MinConviction:     getEnvAsFloat("FUNNEL_MIN_CONVICTION", 50),
			CashReservePct:    getEnvAsFloat("FUNNEL_CASH_RESERVE_PCT", 5),
			SellThreshold:     getEnvAsFloat("FUNNEL_SELL_THRESHOLD", 40),
			HoldThreshold:     getEnvAsFloat("FUNNEL_HOLD_THRESHOLD", 50),
			BuyThreshold:      getEnvAsFloat("FUNNEL_BUY_THRESHOLD", 65),
			MaxSellsPerReview: getEnvAsInt("FUNNEL_MAX_SELLS", 3),
			MaxBuysPerReview:  getEnvAsInt("FUNNEL_MAX_BUYS", 3),
			MaxTurnoverPct:    getEnvAsFloat("FUNNEL_MAX_TURNOVER_PCT", 25),
			MinPositionPct:    getEnvAsFloat("FUNNEL_MIN_POSITION_PCT", 2),
			MaxPositionPct:    getEnvAsFloat("FUNNEL_MAX_POSITION_PCT", 10),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required values. A malformed config is fatal: the run is
// marked failed before any stage starts.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return c.Funnel.Validate()
}

// Validate checks the funnel tunables for internal consistency.
func (f *FunnelConfig) Validate() error {
	switch f.Strategy {
	case "value", "growth", "balanced":
	default:
		return fmt.Errorf("FUNNEL_STRATEGY must be one of: value, growth, balanced")
	}

	if f.TargetCount <= 0 {
		return fmt.Errorf("FUNNEL_TARGET_COUNT must be positive")
	}
	if f.MaxSectorPct <= 0 || f.MaxSectorPct > 1 {
		return fmt.Errorf("FUNNEL_MAX_SECTOR_PCT must be in (0, 1]")
	}
	if f.MaxHoldings <= 0 {
		return fmt.Errorf("FUNNEL_MAX_HOLDINGS must be positive")
	}
	if f.CashReservePct < 0 || f.CashReservePct >= 100 {
		return fmt.Errorf("FUNNEL_CASH_RESERVE_PCT must be in [0, 100)")
	}
	if f.SellThreshold > f.HoldThreshold {
		return fmt.Errorf("sell threshold %.1f exceeds hold threshold %.1f", f.SellThreshold, f.HoldThreshold)
	}
	if f.MinPositionPct < 0 || f.MaxPositionPct <= f.MinPositionPct {
		return fmt.Errorf("position bounds invalid: min=%.1f max=%.1f", f.MinPositionPct, f.MaxPositionPct)
	}
	if f.Concurrency <= 0 {
		return fmt.Errorf("FUNNEL_CONCURRENCY must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from a few likely locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
