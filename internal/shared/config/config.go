package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	// BaseURL is the public URL that checkout success/cancel pages hang off of.
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds identity-provider token validation configuration.
// Tokens are issued by the external identity provider; the server only
// verifies them with the shared secret and reads the claims.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// StripeConfig holds billing provider configuration.
type StripeConfig struct {
	SecretKey     string             `mapstructure:"secret_key"`
	WebhookSecret string             `mapstructure:"webhook_secret"`
	Prices        StripePricesConfig `mapstructure:"prices"`
}

// StripePricesConfig holds the four recurring price identifiers.
type StripePricesConfig struct {
	PremiumMonthly string `mapstructure:"premium_monthly"`
	PremiumYearly  string `mapstructure:"premium_yearly"`
	FamilyMonthly  string `mapstructure:"family_monthly"`
	FamilyYearly   string `mapstructure:"family_yearly"`
}

// AIConfig holds AI provider configuration.
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// Circuit breaker settings for the provider client.
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	CircuitTimeout   time.Duration `mapstructure:"circuit_timeout"`
}

// RateLimitConfig holds generation rate limiting configuration.
type RateLimitConfig struct {
	GenerateLimit  int           `mapstructure:"generate_limit"`
	GenerateWindow time.Duration `mapstructure:"generate_window"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/plateful")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// Read from environment variables
	v.SetEnvPrefix("PLATEFUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if secret := os.Getenv("PLATEFUL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("PLATEFUL_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("PLATEFUL_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("PLATEFUL_STRIPE_SECRET_KEY"); key != "" {
		cfg.Stripe.SecretKey = key
	}
	if secret := os.Getenv("PLATEFUL_STRIPE_WEBHOOK_SECRET"); secret != "" {
		cfg.Stripe.WebhookSecret = secret
	}
	if key := os.Getenv("PLATEFUL_AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	if url := os.Getenv("PLATEFUL_APP_BASE_URL"); url != "" {
		cfg.App.BaseURL = url
	}
	if id := os.Getenv("PLATEFUL_STRIPE_PRICES_PREMIUM_MONTHLY"); id != "" {
		cfg.Stripe.Prices.PremiumMonthly = id
	}
	if id := os.Getenv("PLATEFUL_STRIPE_PRICES_PREMIUM_YEARLY"); id != "" {
		cfg.Stripe.Prices.PremiumYearly = id
	}
	if id := os.Getenv("PLATEFUL_STRIPE_PRICES_FAMILY_MONTHLY"); id != "" {
		cfg.Stripe.Prices.FamilyMonthly = id
	}
	if id := os.Getenv("PLATEFUL_STRIPE_PRICES_FAMILY_YEARLY"); id != "" {
		cfg.Stripe.Prices.FamilyYearly = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "stripe.secret_key")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "stripe.webhook_secret")
	}
	if c.Stripe.Prices.PremiumMonthly == "" {
		missing = append(missing, "stripe.prices.premium_monthly")
	}
	if c.Stripe.Prices.PremiumYearly == "" {
		missing = append(missing, "stripe.prices.premium_yearly")
	}
	if c.Stripe.Prices.FamilyMonthly == "" {
		missing = append(missing, "stripe.prices.family_monthly")
	}
	if c.Stripe.Prices.FamilyYearly == "" {
		missing = append(missing, "stripe.prices.family_yearly")
	}
	if c.AI.APIKey == "" {
		missing = append(missing, "ai.api_key")
	}
	if c.App.BaseURL == "" {
		missing = append(missing, "app.base_url")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if len(missing) > 0 {
		return errors.New("missing required config: " + strings.Join(missing, ", "))
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "plateful")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	// Redis defaults
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// AI defaults
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "meta-llama/llama-3.3-70b-instruct:free")
	v.SetDefault("ai.max_tokens", 3000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.failure_threshold", 5)
	v.SetDefault("ai.circuit_timeout", 60*time.Second)

	// Rate limit defaults
	v.SetDefault("rate_limit.generate_limit", 10)
	v.SetDefault("rate_limit.generate_window", time.Minute)

	// Auth defaults
	v.SetDefault("auth.issuer", "plateful")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
