package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Values come from DefaultConfig, then the
// optional YAML file, then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Payment   PaymentConfig   `yaml:"payment"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Search    SearchConfig    `yaml:"search"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Rewards   RewardsConfig   `yaml:"rewards"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects postgres when URL or Host is set, sqlite at SQLitePath otherwise.
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PaymentConfig picks the gateway: "stripe" or "hmac".
type PaymentConfig struct {
	Provider      string        `yaml:"provider"`
	Currency      string        `yaml:"currency"`
	KeyID         string        `yaml:"key_id"`
	Secret        string        `yaml:"secret"`
	StripeAPIKey  string        `yaml:"stripe_api_key"`
	VerifyLockTTL time.Duration `yaml:"verify_lock_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SearchConfig struct {
	MeiliHost   string `yaml:"meili_host"`
	MeiliAPIKey string `yaml:"meili_api_key"`
	Index       string `yaml:"index"`
}

type SchedulerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	LeaderboardCron string `yaml:"leaderboard_cron"`
}

// RewardsConfig overrides the points-per-kg table keyed by waste type.
type RewardsConfig struct {
	Multipliers map[string]float64 `yaml:"multipliers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "debug",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:       "5432",
			SSLMode:    "disable",
			SQLitePath: "bintobloom.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Payment: PaymentConfig{
			Provider:      "hmac",
			Currency:      "INR",
			VerifyLockTTL: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "pickup-events",
		},
		Search: SearchConfig{
			Index: "pickups",
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			LeaderboardCron: "*/15 * * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Timezone: "Local",
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
	}
}

// Load reads envFile (if present) into the process environment, overlays yamlFile (if
// present) on the defaults, then applies environment overrides. Every malformed value is
// reported in the joined error.
func Load(envFile, yamlFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	cfg := DefaultConfig()
	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	var errs []error
	cfg.applyEnv(&errs)
	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c *Config) applyEnv(errs *[]error) {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	setDuration(&c.Server.ReadTimeout, "HTTP_READ_TIMEOUT", errs)
	setDuration(&c.Server.WriteTimeout, "HTTP_WRITE_TIMEOUT", errs)
	setDuration(&c.Server.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", errs)

	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&c.Auth.TokenTTL, "JWT_TTL", errs)

	setString(&c.Payment.Provider, "PAYMENT_PROVIDER")
	setString(&c.Payment.Currency, "PAYMENT_CURRENCY")
	setString(&c.Payment.KeyID, "PAYMENT_KEY_ID")
	setString(&c.Payment.Secret, "PAYMENT_SECRET")
	setString(&c.Payment.StripeAPIKey, "STRIPE_API_KEY")
	setDuration(&c.Payment.VerifyLockTTL, "PAYMENT_VERIFY_LOCK_TTL", errs)

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB", errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitAndTrim(brokers)
	}
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")

	setString(&c.Search.MeiliHost, "MEILI_HOST")
	setString(&c.Search.MeiliAPIKey, "MEILI_API_KEY")

	setBool(&c.Scheduler.Enabled, "SCHEDULER_ENABLED", errs)
	setString(&c.Scheduler.LeaderboardCron, "LEADERBOARD_CRON")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	setString(&c.Timezone, "TZ_NAME")
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.CORS.AllowOrigins = splitAndTrim(origins)
	}
}

func (c *Config) validate() []error {
	var errs []error
	if c.Auth.JWTSecret == "" && c.Server.Mode == "release" {
		errs = append(errs, errors.New("JWT_SECRET is required in release mode"))
	}
	switch c.Payment.Provider {
	case "stripe":
		if c.Payment.StripeAPIKey == "" {
			errs = append(errs, errors.New("STRIPE_API_KEY is required when payment provider is stripe"))
		}
	case "hmac":
		if c.Payment.Secret == "" && c.Server.Mode == "release" {
			errs = append(errs, errors.New("PAYMENT_SECRET is required in release mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown payment provider %q", c.Payment.Provider))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be > 0"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	return errs
}

// Location resolves Timezone for scheduling rules.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// PostgresDSN builds a DSN from the discrete DB_* settings, or returns URL verbatim.
// It returns "" when neither is configured.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func setString(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func setDuration(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setInt(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setBool(target *bool, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
