package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const PROD_STRING = "prod"

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	LogLevel     string

	StoreDriver   string
	DBDSN         string
	MongoURI      string
	MongoDatabase string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ProviderCacheTTL time.Duration

	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	RateLimitPerMin   int
	BookingMaxRetries int
	StoragePath       string
	MaxPhotoBytes     int64
}

// Load loads configuration from .env (optional), config.yaml (optional) and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PROD_ORIGINS", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("MONGO_DATABASE", "servicehub")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("PROVIDER_CACHE_TTL", "5m")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", "5h")
	v.SetDefault("BCRYPT_COST", "12")
	v.SetDefault("RATE_LIMIT_PER_MIN", "200")
	v.SetDefault("BOOKING_MAX_RETRIES", "3")
	v.SetDefault("STORAGE_PATH", "./data/uploads")
	v.SetDefault("MAX_PHOTO_BYTES", strconv.Itoa(5<<20))
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		IsProduction:  v.GetString("APP_ENV") == PROD_STRING,
		ProdOrigins:   v.GetString("PROD_ORIGINS"),
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		DBDSN:         v.GetString("DB_DSN"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		StoragePath:   v.GetString("STORAGE_PATH"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want postgres, mongo or memory", cfg.StoreDriver)
	}

	if cfg.IsProduction && strings.TrimSpace(cfg.ProdOrigins) == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required in production")
	}

	// JWT secret is required for signing tokens
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.JWTAccessTokenTTL, err = getDuration(v, "JWT_ACCESS_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.ProviderCacheTTL, err = getDuration(v, "PROVIDER_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt(v, "BCRYPT_COST"); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt(v, "REDIS_DB"); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = getInt(v, "RATE_LIMIT_PER_MIN"); err != nil {
		return nil, err
	}
	if cfg.BookingMaxRetries, err = getInt(v, "BOOKING_MAX_RETRIES"); err != nil {
		return nil, err
	}
	if cfg.BookingMaxRetries < 1 {
		return nil, fmt.Errorf("invalid BOOKING_MAX_RETRIES: must be at least 1")
	}
	maxPhoto, err := getInt(v, "MAX_PHOTO_BYTES")
	if err != nil {
		return nil, err
	}
	cfg.MaxPhotoBytes = int64(maxPhoto)

	return cfg, nil
}

// getDuration parses a value such as "15m" or "1h".
func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getInt returns an error if the value is set but is not a valid integer.
func getInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, raw, err)
	}
	return n, nil
}
