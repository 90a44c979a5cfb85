package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Market data feed
	FeedWSURL               string
	WSDialTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	TickBufferSize          int

	// Watchlist
	WatchlistPath string

	// Strategy
	StrategyName      string
	TradeAmount       float64
	BuyThreshold      float64
	SellThreshold     float64
	MomentumLookback  int
	MomentumEntryMove float64
	MomentumExitMove  float64
	SubprocessCommand string
	SubprocessTimeout time.Duration

	// Execution
	SlippageBPS  float64
	UseBookPrice bool

	// Risk
	MaxTotalExposure float64
	MaxDailyLoss     float64
	MaxDailyTrades   int
	MaxSingleTrade   float64
	BreakerEnabled   bool
	BreakerCooldown  time.Duration

	// Recorder
	DataDir string

	// Cache
	CacheMaxItems int64

	// Storage
	StorageMode  string // "postgres" or "memory"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Feed defaults
		FeedWSURL:               getEnvOrDefault("FEED_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		TickBufferSize:          getIntOrDefault("TICK_BUFFER_SIZE", 1000),

		// Watchlist defaults
		WatchlistPath: getEnvOrDefault("WATCHLIST_PATH", "markets.yaml"),

		// Strategy defaults
		StrategyName:      getEnvOrDefault("STRATEGY_NAME", "threshold"),
		TradeAmount:       getFloat64OrDefault("TRADE_AMOUNT", 10.0),
		BuyThreshold:      getFloat64OrDefault("BUY_THRESHOLD", 0.30),
		SellThreshold:     getFloat64OrDefault("SELL_THRESHOLD", 0.70),
		MomentumLookback:  getIntOrDefault("MOMENTUM_LOOKBACK", 10),
		MomentumEntryMove: getFloat64OrDefault("MOMENTUM_ENTRY_MOVE", 0.05),
		MomentumExitMove:  getFloat64OrDefault("MOMENTUM_EXIT_MOVE", 0.03),
		SubprocessCommand: os.Getenv("STRATEGY_SUBPROCESS_COMMAND"),
		SubprocessTimeout: getDurationOrDefault("STRATEGY_SUBPROCESS_TIMEOUT", 5*time.Second),

		// Execution defaults
		SlippageBPS:  getFloat64OrDefault("SLIPPAGE_BPS", 10.0),
		UseBookPrice: getBoolOrDefault("USE_BOOK_PRICE", true),

		// Risk defaults
		MaxTotalExposure: getFloat64OrDefault("MAX_TOTAL_EXPOSURE", 1000.0),
		MaxDailyLoss:     getFloat64OrDefault("MAX_DAILY_LOSS", 100.0),
		MaxDailyTrades:   getIntOrDefault("MAX_DAILY_TRADES", 50),
		MaxSingleTrade:   getFloat64OrDefault("MAX_SINGLE_TRADE", 100.0),
		BreakerEnabled:   getBoolOrDefault("BREAKER_ENABLED", true),
		BreakerCooldown:  getDurationOrDefault("BREAKER_COOLDOWN", 1*time.Hour),

		// Recorder defaults
		DataDir: getEnvOrDefault("DATA_DIR", "data"),

		// Cache defaults
		CacheMaxItems: int64(getIntOrDefault("CACHE_MAX_ITEMS", 10000)),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_trader"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.FeedWSURL == "" {
		return fmt.Errorf("FEED_WS_URL cannot be empty")
	}

	if c.TradeAmount <= 0 {
		return fmt.Errorf("TRADE_AMOUNT must be positive, got %f", c.TradeAmount)
	}

	if c.BuyThreshold <= 0 || c.BuyThreshold >= 1.0 {
		return fmt.Errorf("BUY_THRESHOLD must be between 0 and 1.0, got %f", c.BuyThreshold)
	}

	if c.SellThreshold <= 0 || c.SellThreshold >= 1.0 {
		return fmt.Errorf("SELL_THRESHOLD must be between 0 and 1.0, got %f", c.SellThreshold)
	}

	if c.SlippageBPS < 0 {
		return fmt.Errorf("SLIPPAGE_BPS cannot be negative, got %f", c.SlippageBPS)
	}

	if c.MaxSingleTrade <= 0 {
		return fmt.Errorf("MAX_SINGLE_TRADE must be positive, got %f", c.MaxSingleTrade)
	}

	if c.BreakerEnabled && c.BreakerCooldown <= 0 {
		return fmt.Errorf("BREAKER_COOLDOWN must be positive when BREAKER_ENABLED, got %s", c.BreakerCooldown)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "memory" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'memory', got %q", c.StorageMode)
	}

	if c.StrategyName == "subprocess" && c.SubprocessCommand == "" {
		return fmt.Errorf("STRATEGY_SUBPROCESS_COMMAND cannot be empty when STRATEGY_NAME is 'subprocess'")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
