package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/flagx"
	"github.com/abidm-bit/riceKrispies/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Every field is a pointer so
// that only keys present in the file override the defaults.
type JsonConfig struct {
	EndpointAddrHTTP *string `json:"endpoint_addr_http"`
	EndpointAddrGRPC *string `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string `json:"database_dsn"`
	SecretKey        *string `json:"secret_key"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`

	RegistrationLimit        *int            `json:"registration_limit"`
	RegistrationWindow       *timex.Duration `json:"registration_window"`
	LoginLimit               *int            `json:"login_limit"`
	LoginWindow              *timex.Duration `json:"login_window"`
	FetchKeysLimit           *int            `json:"fetch_keys_limit"`
	FetchKeysWindow          *timex.Duration `json:"fetch_keys_window"`
	RateLimitCleanupInterval *timex.Duration `json:"rate_limit_cleanup_interval"`

	RedisAddr        *string `json:"redis_addr"`
	RedisPassword    *string `json:"redis_password"`
	RedisStatsPrefix *string `json:"redis_stats_prefix"`

	KeysSeedSource *string  `json:"keys_seed_source"`
	SeedBatchSize  *int     `json:"seed_batch_size"`
	SeedBatchRPS   *float64 `json:"seed_batch_rps"`

	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`

	PasswordSymbols     *string         `json:"password_symbols"`
	BcryptCost          *int            `json:"bcrypt_cost"`
	HealthProbeInterval *timex.Duration `json:"health_probe_interval"`
	ShutdownTimeout     *timex.Duration `json:"shutdown_timeout"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// CONFIG environment variable). Without a path nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)

	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	setInt(&config.RegistrationLimit, c.RegistrationLimit)
	setDuration(&config.RegistrationWindow, c.RegistrationWindow)
	setInt(&config.LoginLimit, c.LoginLimit)
	setDuration(&config.LoginWindow, c.LoginWindow)
	setInt(&config.FetchKeysLimit, c.FetchKeysLimit)
	setDuration(&config.FetchKeysWindow, c.FetchKeysWindow)
	setDuration(&config.RateLimitCleanupInterval, c.RateLimitCleanupInterval)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.RedisStatsPrefix, c.RedisStatsPrefix)

	setString(&config.KeysSeedSource, c.KeysSeedSource)
	setInt(&config.SeedBatchSize, c.SeedBatchSize)
	if c.SeedBatchRPS != nil {
		config.SeedBatchRPS = *c.SeedBatchRPS
	}

	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)

	setString(&config.PasswordSymbols, c.PasswordSymbols)
	setInt(&config.BcryptCost, c.BcryptCost)
	setDuration(&config.HealthProbeInterval, c.HealthProbeInterval)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)
}
