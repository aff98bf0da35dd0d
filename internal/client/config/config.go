package config

import "time"

// Config holds runtime settings for the key client.
//
// Fields:
//   - ServerURL: base URL of the key server's HTTP gateway.
//   - Timeout: per-request timeout.
type Config struct {
	ServerURL string
	Timeout   time.Duration
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 10 * time.Second
}

// LoadConfig applies defaults, then JSON, then flags from args. Later
// sources take precedence.
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
