package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Notification drivers.
const (
	NotificationDriverQueue = "queue"
	NotificationDriverRedis = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Cases         CasesConfig
	Catalog       CatalogConfig
	Notifications NotificationsConfig
	RequestLinks  RequestLinksConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CasesConfig drives the case lifecycle engine.
type CasesConfig struct {
	InitialStatus  string
	TerminalStatus string
	TxTimeout      time.Duration
}

// CatalogConfig tunes status catalog caching.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NotificationsConfig selects how post-commit notification intents leave the process.
type NotificationsConfig struct {
	Driver     string
	Workers    int
	BufferSize int
	RedisList  string
}

// RequestLinksConfig configures signed public request-page links.
type RequestLinksConfig struct {
	Secret  string
	TTL     time.Duration
	BaseURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cases = CasesConfig{
		InitialStatus:  strings.TrimSpace(v.GetString("CASE_INITIAL_STATUS")),
		TerminalStatus: strings.TrimSpace(v.GetString("CASE_TERMINAL_STATUS")),
		TxTimeout:      parseDuration(v.GetString("CASE_TX_TIMEOUT"), 5*time.Second),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("NOTIFICATION_DRIVER")))
	if driver != NotificationDriverRedis {
		driver = NotificationDriverQueue
	}
	cfg.Notifications = NotificationsConfig{
		Driver:     driver,
		Workers:    v.GetInt("NOTIFICATION_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATION_BUFFER_SIZE"),
		RedisList:  v.GetString("NOTIFICATION_REDIS_LIST"),
	}

	cfg.RequestLinks = RequestLinksConfig{
		Secret:  v.GetString("REQUEST_LINK_SECRET"),
		TTL:     parseDuration(v.GetString("REQUEST_LINK_TTL"), 365*24*time.Hour),
		BaseURL: strings.TrimRight(v.GetString("REQUEST_LINK_BASE_URL"), "/"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "compliance_cases")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CASE_INITIAL_STATUS", "Submitted")
	v.SetDefault("CASE_TERMINAL_STATUS", "Closed")
	v.SetDefault("CASE_TX_TIMEOUT", "5s")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("NOTIFICATION_DRIVER", NotificationDriverQueue)
	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER_SIZE", 256)
	v.SetDefault("NOTIFICATION_REDIS_LIST", "notifications:intents")

	v.SetDefault("REQUEST_LINK_SECRET", "dev_request_link_secret")
	v.SetDefault("REQUEST_LINK_TTL", "8760h")
	v.SetDefault("REQUEST_LINK_BASE_URL", "http://localhost:3000/request-page")
}

func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
