package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abidm-bit/riceKrispies/internal/flagx"
	"github.com/abidm-bit/riceKrispies/internal/timex"
)

// JsonConfig is used only for decoding. Absent keys keep their defaults.
type JsonConfig struct {
	ServerURL *string         `json:"server_url"`
	Timeout   *timex.Duration `json:"timeout"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
