package config

import (
	"fmt"
	"strings"

	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"

	"github.com/spf13/viper"
)

// Config is the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Order        OrderConfig        `mapstructure:"order"`
	Grace        GraceConfig        `mapstructure:"grace"`
	Commission   CommissionConfig   `mapstructure:"commission"`
	Credit       CreditConfig       `mapstructure:"credit"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Notification NotificationConfig `mapstructure:"notification"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// ServerConfig HTTP listener
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Mode                   string `mapstructure:"mode"` // debug / release
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Addr is the listen address
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig log output
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions converts to logger options
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Service:    "ordercore",
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig connection pool
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig database
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// ToPoolConfig converts pool settings for models.InitDB
func (c DatabaseConfig) ToPoolConfig() models.DBPoolConfig {
	return models.DBPoolConfig{
		MaxOpenConns:           c.Pool.MaxOpenConns,
		MaxIdleConns:           c.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: c.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: c.Pool.ConnMaxIdleTimeSeconds,
	}
}

// JWTConfig principal tokens issued by the identity service
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig redis used for counters, locks and rate limits
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig asynq queue
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig cross origin settings
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// OrderConfig order pricing and numbering
type OrderConfig struct {
	NumberPrefix          string `mapstructure:"number_prefix"`
	DeliveryCharge        int64  `mapstructure:"delivery_charge"`
	MinOrderValue         int64  `mapstructure:"min_order_value"`
	UpfrontPercent        int64  `mapstructure:"upfront_percent"`
	DeliveryTimelineHours int    `mapstructure:"delivery_timeline_hours"`
	TimezoneOffsetMinutes int    `mapstructure:"timezone_offset_minutes"`
	ConflictRetryAttempts int    `mapstructure:"conflict_retry_attempts"`
}

// GraceConfig reversible decision windows
type GraceConfig struct {
	WindowMinutes         int `mapstructure:"window_minutes"`
	SweepIntervalSeconds  int `mapstructure:"sweep_interval_seconds"`
	ExpiringNoticeMinutes int `mapstructure:"expiring_notice_minutes"`
}

// CommissionConfig partner commission tiers
type CommissionConfig struct {
	Threshold       int64   `mapstructure:"threshold"`
	LowRatePercent  float64 `mapstructure:"low_rate_percent"`
	HighRatePercent float64 `mapstructure:"high_rate_percent"`
	LockTTLSeconds  int     `mapstructure:"lock_ttl_seconds"`
}

// RepaymentTierConfig a days-elapsed band with a percentage
type RepaymentTierConfig struct {
	Name    string  `mapstructure:"name"`
	MinDays int     `mapstructure:"min_days"`
	MaxDays int     `mapstructure:"max_days"`
	Percent float64 `mapstructure:"percent"`
}

// CreditConfig vendor credit purchases
type CreditConfig struct {
	MinPurchase        int64                 `mapstructure:"min_purchase"`
	MaxPurchase        int64                 `mapstructure:"max_purchase"`
	DefaultCreditLimit int64                 `mapstructure:"default_credit_limit"`
	DiscountTiers      []RepaymentTierConfig `mapstructure:"discount_tiers"`
	InterestTiers      []RepaymentTierConfig `mapstructure:"interest_tiers"`
}

// PaymentConfig gateway callback settings
type PaymentConfig struct {
	WebhookSecret           string `mapstructure:"webhook_secret"`
	WebhookToleranceSeconds int    `mapstructure:"webhook_tolerance_seconds"`
}

// RateLimitRuleConfig a fixed window limit
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// RateLimitConfig rate limits
type RateLimitConfig struct {
	Webhook     RateLimitRuleConfig `mapstructure:"webhook"`
	OrderCreate RateLimitRuleConfig `mapstructure:"order_create"`
}

// NotificationConfig domain event delivery
type NotificationConfig struct {
	Provider                string `mapstructure:"provider"` // log / firebase
	FirebaseProjectID       string `mapstructure:"firebase_project_id"`
	FirebaseCredentialsFile string `mapstructure:"firebase_credentials_file"`
}

// MetricsConfig prometheus exposition
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads config.yml from the working directory, its parent or ./etc, then environment overrides
func Load() *Config {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches the default locations
func LoadFile(path string) *Config {
	if path = strings.TrimSpace(path); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("../")
		viper.AddConfigPath("./etc")
	}

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "ordercore.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/ordercore.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "oc")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("order.number_prefix", "ORD")
	v.SetDefault("order.delivery_charge", 50)
	v.SetDefault("order.min_order_value", 2000)
	v.SetDefault("order.upfront_percent", 30)
	v.SetDefault("order.delivery_timeline_hours", 24)
	v.SetDefault("order.timezone_offset_minutes", 330)
	v.SetDefault("order.conflict_retry_attempts", 3)
	v.SetDefault("grace.window_minutes", 60)
	v.SetDefault("grace.sweep_interval_seconds", 60)
	v.SetDefault("grace.expiring_notice_minutes", 10)
	v.SetDefault("commission.threshold", 50000)
	v.SetDefault("commission.low_rate_percent", 2)
	v.SetDefault("commission.high_rate_percent", 3)
	v.SetDefault("commission.lock_ttl_seconds", 10)
	v.SetDefault("credit.min_purchase", 50000)
	v.SetDefault("credit.max_purchase", 100000)
	v.SetDefault("credit.default_credit_limit", 100000)
	v.SetDefault("credit.discount_tiers", []map[string]interface{}{
		{"name": "early_7", "min_days": 0, "max_days": 7, "percent": 2},
		{"name": "early_15", "min_days": 8, "max_days": 15, "percent": 1},
	})
	v.SetDefault("credit.interest_tiers", []map[string]interface{}{
		{"name": "late_60", "min_days": 46, "max_days": 60, "percent": 1},
		{"name": "late_90", "min_days": 61, "max_days": 0, "percent": 2},
	})
	v.SetDefault("payment.webhook_secret", "")
	v.SetDefault("payment.webhook_tolerance_seconds", 300)
	v.SetDefault("rate_limit.webhook.window_seconds", 60)
	v.SetDefault("rate_limit.webhook.max_requests", 600)
	v.SetDefault("rate_limit.order_create.window_seconds", 60)
	v.SetDefault("rate_limit.order_create.max_requests", 20)
	v.SetDefault("notification.provider", "log")
	v.SetDefault("notification.firebase_project_id", "")
	v.SetDefault("notification.firebase_credentials_file", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
