package config

import (
	"flag"
	"io"

	"github.com/abidm-bit/riceKrispies/internal/flagx"
)

// parseFlags overlays cfg with:
//
//	-server string     base URL of the server
//	-timeout duration  request timeout (e.g. "5s")
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, "server", "timeout")

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")

	return fs.Parse(args)
}
