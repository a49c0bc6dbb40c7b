package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]string) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]string{
		"STORE_DRIVER": "memory",
		"JWT_SECRET":   "secret",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5*time.Hour, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.ProviderCacheTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 3, cfg.BookingMaxRetries)
	assert.Equal(t, 200, cfg.RateLimitPerMin)
	assert.Equal(t, int64(5<<20), cfg.MaxPhotoBytes)
	assert.Equal(t, "servicehub", cfg.MongoDatabase)
}

func TestOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]string{
		"APP_ENV":              "prod",
		"STORE_DRIVER":         "Postgres",
		"DB_DSN":               "postgres://localhost/servicehub",
		"JWT_SECRET":           "secret",
		"JWT_ACCESS_TOKEN_TTL": "30m",
		"BOOKING_MAX_RETRIES":  "5",
		"REDIS_ADDR":           "localhost:6379",
		"PROD_ORIGINS":         "https://servicehub.example",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 5, cfg.BookingMaxRetries)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"missing jwt secret", map[string]string{"STORE_DRIVER": "memory"}, "JWT_SECRET"},
		{"postgres without dsn", map[string]string{"JWT_SECRET": "s"}, "DB_DSN"},
		{"mongo without uri", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "mongo"}, "MONGO_URI"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"prod without origins", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "APP_ENV": "prod"}, "PROD_ORIGINS"},
		{"bad ttl", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "JWT_ACCESS_TOKEN_TTL": "soon"}, "JWT_ACCESS_TOKEN_TTL"},
		{"bad bcrypt cost", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "BCRYPT_COST": "high"}, "BCRYPT_COST"},
		{"zero retries", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "BOOKING_MAX_RETRIES": "0"}, "BOOKING_MAX_RETRIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.values))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
