package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Advisory (DeepSeek-compatible chat API)
	Advisory AdvisoryConfig

	// Data provider (fund valuation / NAV history)
	Eastmoney EastmoneyConfig

	// Decision engine
	Engine EngineConfig

	// Scheduling
	Schedule ScheduleConfig

	// Fund pool
	Funds []FundConfig

	// Logging
	LogLevel  string
	LogFormat string
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// AdvisoryConfig holds the external advisory API configuration
type AdvisoryConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// Rate limit (requests per window) to respect the provider quota
	RateLimit  int
	RateWindow time.Duration
}

// EastmoneyConfig holds the fund data provider configuration
type EastmoneyConfig struct {
	ValuationBaseURL string
	HistoryBaseURL   string
	HoldingsBaseURL  string
}

// EngineConfig holds decision engine tuning
type EngineConfig struct {
	Workers      int           // instrument pipelines evaluated in parallel
	RunDeadline  time.Duration // overall batch deadline
	ProfilesPath string        // asset-profile YAML path
	HistoryDays  int           // NAV history depth to keep available
}

// ScheduleConfig holds the cron schedule for the decision job
type ScheduleConfig struct {
	Timezone     string
	DecisionCron string // cron spec with seconds, e.g. "0 45 14 * * 1-5"
}

// FundConfig describes one instrument of the fixed pool
type FundConfig struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"` // "Bond" or "ETF_Feeder"
	UnderlyingETF string `json:"underlying_etf,omitempty"`
	AssetClass    string `json:"asset_class,omitempty"` // GOLD_ETF / COMMODITY_CYCLE / ...
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	funds, err := parseFundList(os.Getenv("FUND_LIST"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Advisory API
		Advisory: AdvisoryConfig{
			APIKey:     getEnv("ADVISORY_API_KEY", ""),
			Model:      getEnv("ADVISORY_MODEL", "deepseek-chat"),
			BaseURL:    getEnv("ADVISORY_BASE_URL", "https://api.deepseek.com"),
			Timeout:    getEnvAsDuration("ADVISORY_TIMEOUT", "45s"),
			RateLimit:  getEnvAsInt("ADVISORY_RATE_LIMIT", 10),
			RateWindow: getEnvAsDuration("ADVISORY_RATE_WINDOW", "1m"),
		},

		// Data provider
		Eastmoney: EastmoneyConfig{
			ValuationBaseURL: getEnv("EASTMONEY_VALUATION_URL", "http://fundgz.1234567.com.cn"),
			HistoryBaseURL:   getEnv("EASTMONEY_HISTORY_URL", "https://api.fund.eastmoney.com"),
			HoldingsBaseURL:  getEnv("EASTMONEY_HOLDINGS_URL", "https://fundf10.eastmoney.com"),
		},

		// Engine
		Engine: EngineConfig{
			Workers:      getEnvAsInt("ENGINE_WORKERS", 4),
			RunDeadline:  getEnvAsDuration("ENGINE_RUN_DEADLINE", "10m"),
			ProfilesPath: getEnv("PROFILES_PATH", "config/profiles.yaml"),
			HistoryDays:  getEnvAsInt("ENGINE_HISTORY_DAYS", 520),
		},

		// Scheduling
		Schedule: ScheduleConfig{
			Timezone:     getEnv("TIMEZONE", "Asia/Shanghai"),
			DecisionCron: getEnv("DECISION_CRON", "0 45 14 * * 1-5"),
		},

		Funds: funds,

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.Workers < 1 {
		return fmt.Errorf("ENGINE_WORKERS must be >= 1")
	}

	if c.Advisory.Timeout <= 0 {
		return fmt.Errorf("ADVISORY_TIMEOUT must be positive")
	}

	for i, f := range c.Funds {
		if f.Code == "" {
			return fmt.Errorf("FUND_LIST[%d]: code is required", i)
		}
		if f.Type != "Bond" && f.Type != "ETF_Feeder" {
			return fmt.Errorf("FUND_LIST[%d] (%s): type must be Bond or ETF_Feeder", i, f.Code)
		}
	}

	return nil
}

// parseFundList decodes the FUND_LIST JSON env var
func parseFundList(raw string) ([]FundConfig, error) {
	if raw == "" {
		return nil, nil
	}

	var funds []FundConfig
	if err := json.Unmarshal([]byte(raw), &funds); err != nil {
		return nil, fmt.Errorf("FUND_LIST is not valid JSON: %w", err)
	}

	return funds, nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
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
