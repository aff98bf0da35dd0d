package config

import (
	"flag"
	"strings"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-g string        gRPC health bind address (e.g., ":50051")
//	-d string        PostgreSQL DSN; empty uses the in-memory store
//	-s string        JWT HMAC secret key
//	-o string        comma-separated CORS origins
//	-k string        keys seed source (file path or s3://bucket/object)
//	-r string        Redis address for rate-limit statistics
//	-l string        log level
//	-reg-limit int   registrations per window
//	-login-limit int logins per window
//	-fetch-limit int key fetches per window
//	-w int           window for all three classes, minutes
//	-u / -p string   S3 access key / secret key
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000")
//	-region string   S3 region
//
// Only the listed flags are taken from args (via flagx.FilterArgs), so the
// -c/-config flag and flags of other components are ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args,
		"a", "g", "d", "s", "o", "k", "r", "l",
		"reg-limit", "login-limit", "fetch-limit", "w",
		"u", "p", "e", "region")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "allowed CORS origins, comma separated")
	fs.StringVar(&config.KeysSeedSource, "k", config.KeysSeedSource, "keys seed source")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.IntVar(&config.RegistrationLimit, "reg-limit", config.RegistrationLimit, "registrations per window")
	fs.IntVar(&config.LoginLimit, "login-limit", config.LoginLimit, "logins per window")
	fs.IntVar(&config.FetchKeysLimit, "fetch-limit", config.FetchKeysLimit, "key fetches per window")
	window := fs.Int("w", 0, "rate limit window for all classes (in minutes)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.CORSAllowedOrigins = splitList(*origins)
	if *window > 0 {
		w := time.Duration(*window) * time.Minute
		config.RegistrationWindow = w
		config.LoginWindow = w
		config.FetchKeysWindow = w
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
