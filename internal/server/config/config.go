// Package config handles configuration for the key server, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the key server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the HTTP gateway
//     and the gRPC health service.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Required.
//   - CORSAllowedOrigins: browser origins allowed to call the gateway.
//   - *Limit / *Window: per-class fixed-window throttling rules.
//   - RedisAddr: when set, rate-limit decisions are aggregated in Redis.
//   - KeysSeedSource: CSV file or s3://bucket/object imported at startup.
//   - S3*: credentials and endpoint for the S3-compatible key source.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string
	SecretKey        string

	CORSAllowedOrigins []string

	RegistrationLimit        int
	RegistrationWindow       time.Duration
	LoginLimit               int
	LoginWindow              time.Duration
	FetchKeysLimit           int
	FetchKeysWindow          time.Duration
	RateLimitCleanupInterval time.Duration

	RedisAddr        string
	RedisPassword    string
	RedisStatsPrefix string

	KeysSeedSource string
	SeedBatchSize  int
	SeedBatchRPS   float64

	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	PasswordSymbols     string
	BcryptCost          int
	HealthProbeInterval time.Duration
	ShutdownTimeout     time.Duration
	LogLevel            string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.CORSAllowedOrigins = []string{"http://localhost:3000"}

	c.RegistrationLimit = 5
	c.RegistrationWindow = 24 * time.Hour
	c.LoginLimit = 50
	c.LoginWindow = 24 * time.Hour
	c.FetchKeysLimit = 50
	c.FetchKeysWindow = 24 * time.Hour
	c.RateLimitCleanupInterval = 10 * time.Minute

	c.RedisAddr = ""
	c.RedisPassword = ""
	c.RedisStatsPrefix = "riceKrispies:ratelimit"

	c.KeysSeedSource = ""
	c.SeedBatchSize = 1000
	c.SeedBatchRPS = 10

	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3AccessKey = ""
	c.S3SecretKey = ""

	c.PasswordSymbols = ""
	c.BcryptCost = 10
	c.HealthProbeInterval = 5 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags found in
// args (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
