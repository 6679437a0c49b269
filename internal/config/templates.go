package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders DefaultConfig as TOML.
func Template() ([]byte, error) {
	out, err := toml.Marshal(toFile(DefaultConfig()))
	if err != nil {
		return nil, fmt.Errorf("config template: %w", err)
	}
	return out, nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, template, 0o600)
}

func toFile(cfg Config) fileConfig {
	var raw fileConfig
	raw.Log.Level = cfg.Log.Level
	raw.Log.Timestamp = cfg.Log.Timestamp
	raw.Log.NoColor = cfg.Log.NoColor
	raw.Log.JSON = cfg.Log.JSON
	raw.Server.Name = cfg.Server.Name
	raw.Server.Addr = cfg.Server.Addr
	raw.Server.CorsOrigins = cfg.Server.CorsOrigins
	raw.Server.MaxBodyBytes = cfg.Server.MaxBodyBytes
	raw.Server.ShutdownTimeout = cfg.Server.ShutdownTimeout.String()
	raw.Codec.MaxPayloadBytes = cfg.Codec.MaxPayloadBytes
	return raw
}
