package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Trade persistence
	Trades TradesConfig

	// Database (only required when Trades.Store == "postgres")
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data providers
	Polygon PolygonConfig
	Yahoo   YahooConfig
	Finviz  FinvizConfig

	// Screener
	Screener ScreenerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// TradesConfig selects where executed trades are stored
type TradesConfig struct {
	Store           string // file, postgres
	Dir             string // folder for the file store
	RefreshSchedule string // cron spec (with seconds) for the scheduler
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	ChainTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PolygonConfig holds Polygon.io API configuration
type PolygonConfig struct {
	APIKey         string
	BaseURL        string
	RequestsPerMin int // free tier allows 5
	RequestTimeout time.Duration
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// FinvizConfig holds Finviz scraping configuration
type FinvizConfig struct {
	BaseURL string
	Enabled bool
}

// ScreenerConfig holds screening run defaults
type ScreenerConfig struct {
	Concurrency int    // tickers screened in parallel by a batch
	PresetsFile string // optional YAML overriding built-in presets
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Trades: TradesConfig{
			Store:           getEnv("TRADE_STORE", "file"),
			Dir:             getEnv("TRADES_DIR", defaultTradesDir()),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */15 9-17 * * 1-5"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			ChainTTL: getEnvAsDuration("REDIS_CHAIN_TTL", "5m"),
		},

		Polygon: PolygonConfig{
			APIKey:         getEnv("POLYGON_API_KEY", ""),
			BaseURL:        getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			RequestsPerMin: getEnvAsInt("POLYGON_REQUESTS_PER_MIN", 5),
			RequestTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},

		Yahoo: YahooConfig{
			BaseURL:        getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			RequestTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},

		Finviz: FinvizConfig{
			BaseURL: getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			Enabled: getEnvAsBool("FINVIZ_ENABLED", true),
		},

		Screener: ScreenerConfig{
			Concurrency: getEnvAsInt("SCREENER_CONCURRENCY", 4),
			PresetsFile: getEnv("PRESETS_FILE", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	switch c.Trades.Store {
	case "file":
		if c.Trades.Dir == "" {
			return fmt.Errorf("TRADES_DIR is required when TRADE_STORE=file")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when TRADE_STORE=postgres")
		}
	default:
		return fmt.Errorf("TRADE_STORE must be one of: file, postgres")
	}

	if c.Screener.Concurrency < 1 {
		return fmt.Errorf("SCREENER_CONCURRENCY must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
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

// defaultTradesDir is <user config dir>/spreadscreener/Data/Trades
func defaultTradesDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "Data", "Trades")
	}
	return filepath.Join(dir, "spreadscreener", "Data", "Trades")
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
