package config

import (
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Operator     OperatorConfig
	Pricing      PricingConfig
	Notification NotificationConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string
	Version string
	Port    int
	Env     string // development, staging, production
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string
	ExpireTime time.Duration
}

// OperatorConfig 运营后台操作员配置
type OperatorConfig struct {
	// SecretKeyHash 平台处理密钥的SHA256哈希，提现双重校验用
	SecretKeyHash string
	// BootstrapEmail / BootstrapPassword 首次启动时种入的默认操作员
	BootstrapEmail    string
	BootstrapPassword string
}

// PricingConfig 价格刷新配置
type PricingConfig struct {
	ProviderURL     string
	APIKey          string
	QuoteCurrency   string
	RequestTimeout  time.Duration
	RateLimitPerMin int
	RefreshInterval time.Duration
	BatchSize       int
	BatchDelay      time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	CacheTTL        time.Duration
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration
	EmailFrom      string
}

// Load 加载配置
func Load() *Config {
	return &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "exchange-ledger"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Port:    getEnvInt("APP_PORT", 8080),
			Env:     getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "exchange_ledger"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			ExpireTime: time.Duration(getEnvInt("JWT_EXPIRE_HOURS", 24)) * time.Hour,
		},
		Operator: OperatorConfig{
			SecretKeyHash:     getEnv("OPERATOR_SECRET_KEY_HASH", ""),
			BootstrapEmail:    getEnv("OPERATOR_BOOTSTRAP_EMAIL", "admin@example.com"),
			BootstrapPassword: getEnv("OPERATOR_BOOTSTRAP_PASSWORD", "changeme123"),
		},
		Pricing: PricingConfig{
			ProviderURL:     getEnv("PRICE_PROVIDER_URL", "https://api.coingecko.com/api/v3"),
			APIKey:          getEnv("PRICE_PROVIDER_API_KEY", ""),
			QuoteCurrency:   getEnv("PRICE_QUOTE_CURRENCY", "usd"),
			RequestTimeout:  getEnvDuration("PRICE_REQUEST_TIMEOUT", 10*time.Second),
			RateLimitPerMin: getEnvInt("PRICE_RATE_LIMIT_PER_MIN", 50),
			RefreshInterval: getEnvDuration("PRICE_REFRESH_INTERVAL", time.Hour),
			BatchSize:       getEnvInt("PRICE_BATCH_SIZE", 3),
			BatchDelay:      getEnvDuration("PRICE_BATCH_DELAY", 2*time.Second),
			RetryAttempts:   getEnvInt("PRICE_RETRY_ATTEMPTS", 3),
			RetryBaseDelay:  getEnvDuration("PRICE_RETRY_BASE_DELAY", time.Second),
			CacheTTL:        getEnvDuration("PRICE_CACHE_TTL", 5*time.Minute),
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookSecret:  getEnv("NOTIFY_WEBHOOK_SECRET", ""),
			WebhookTimeout: getEnvDuration("NOTIFY_WEBHOOK_TIMEOUT", 10*time.Second),
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
