package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/buidl-renaissance/art-night-detroit-sub000/utils"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server configuration
	Environment string `yaml:"environment"`

	// Redis configuration
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// PubNub configuration
	PubNubPublishKey   string `yaml:"pubnub_publish_key"`
	PubNubSubscribeKey string `yaml:"pubnub_subscribe_key"`
	PubNubSecretKey    string `yaml:"pubnub_secret_key"`

	// Notification configuration
	TelegramBotToken string        `yaml:"telegram_bot_token"`
	OutboxKey        string        `yaml:"outbox_key"`
	NotifyTimeout    time.Duration `yaml:"notify_timeout"`

	// Circuit breaker around notification sinks
	BreakerMinRequests  int           `yaml:"breaker_min_requests"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio"`
	BreakerTimeout      time.Duration `yaml:"breaker_timeout"`

	// Allocation rate limiting
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`

	// Monitoring
	EnableMetrics   bool          `yaml:"enable_metrics"`
	MetricsPort     string        `yaml:"metrics_port"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

func Default() *Config {
	return &Config{
		Environment: "development",

		RedisURL: "localhost:6379",

		OutboxKey:     "raffle:notifications:winners",
		NotifyTimeout: 10 * time.Second,

		BreakerMinRequests:  20,
		BreakerFailureRatio: 0.6,
		BreakerTimeout:      time.Minute,

		RateLimitRequests: 30,
		RateLimitWindow:   time.Minute,

		EnableMetrics:   true,
		MetricsPort:     "9090",
		MetricsInterval: 30 * time.Second,
	}
}

// LoadConfig starts from the defaults, applies the YAML file named by
// CONFIG_FILE if set, then lets environment variables override both.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Server
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	// Redis
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvAsInt("REDIS_DB", c.RedisDB)

	// PubNub
	c.PubNubPublishKey = getEnv("PUBNUB_PUBLISH_KEY", c.PubNubPublishKey)
	c.PubNubSubscribeKey = getEnv("PUBNUB_SUBSCRIBE_KEY", c.PubNubSubscribeKey)
	c.PubNubSecretKey = getEnv("PUBNUB_SECRET_KEY", c.PubNubSecretKey)

	// Notifications
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.OutboxKey = getEnv("OUTBOX_KEY", c.OutboxKey)
	c.NotifyTimeout = getEnvAsDuration("NOTIFY_TIMEOUT", c.NotifyTimeout)
	c.BreakerMinRequests = getEnvAsInt("BREAKER_MIN_REQUESTS", c.BreakerMinRequests)
	c.BreakerTimeout = getEnvAsDuration("BREAKER_TIMEOUT", c.BreakerTimeout)

	// Rate limiting
	c.RateLimitRequests = getEnvAsInt("RATE_LIMIT_REQUESTS", c.RateLimitRequests)
	c.RateLimitWindow = getEnvAsDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow)

	// Monitoring
	c.EnableMetrics = getEnvAsBool("ENABLE_METRICS", c.EnableMetrics)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.MetricsInterval = getEnvAsDuration("METRICS_INTERVAL", c.MetricsInterval)
}

func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func (c *Config) BreakerSettings() utils.BreakerSettings {
	s := utils.DefaultBreakerSettings()
	if c.BreakerMinRequests > 0 {
		s.MinRequests = uint32(c.BreakerMinRequests)
	}
	if c.BreakerFailureRatio > 0 {
		s.FailureRatio = c.BreakerFailureRatio
	}
	if c.BreakerTimeout > 0 {
		s.Timeout = c.BreakerTimeout
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
