package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/wirecodec/internal/logging"
	"github.com/danmuck/wirecodec/internal/protocol"
)

const DefaultPath = "cmd/wirectl/config.toml"

type Config struct {
	Log    LogConfig
	Server ServerConfig
	Codec  CodecConfig
}

type LogConfig struct {
	Level     string
	Timestamp bool
	NoColor   bool
	JSON      bool
}

type ServerConfig struct {
	Name            string
	Addr            string
	CorsOrigins     []string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

type CodecConfig struct {
	MaxPayloadBytes int
}

// fileConfig mirrors Config as it is written on disk.
type fileConfig struct {
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
		JSON      bool   `toml:"json"`
	} `toml:"log"`
	Server struct {
		Name            string   `toml:"name"`
		Addr            string   `toml:"addr"`
		CorsOrigins     []string `toml:"cors_origins"`
		MaxBodyBytes    int64    `toml:"max_body_bytes"`
		ShutdownTimeout string   `toml:"shutdown_timeout"`
	} `toml:"server"`
	Codec struct {
		MaxPayloadBytes int `toml:"max_payload_bytes"`
	} `toml:"codec"`
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Server: ServerConfig{
			Name:            "wirectl",
			Addr:            ":9400",
			CorsOrigins:     []string{"http://localhost:3000"},
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		Codec: CodecConfig{
			MaxPayloadBytes: protocol.MaxPayloadLen,
		},
	}
}

// Load reads path over DefaultConfig; keys absent from the file keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}

	if meta.IsDefined("server", "name") {
		cfg.Server.Name = strings.TrimSpace(raw.Server.Name)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeOrigins(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "max_body_bytes") {
		cfg.Server.MaxBodyBytes = raw.Server.MaxBodyBytes
	}
	if meta.IsDefined("server", "shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Server.ShutdownTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if meta.IsDefined("codec", "max_payload_bytes") {
		cfg.Codec.MaxPayloadBytes = raw.Codec.MaxPayloadBytes
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log level %q not recognized", cfg.Log.Level)
	}
	if strings.TrimSpace(cfg.Server.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	for _, origin := range cfg.Server.CorsOrigins {
		if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			continue
		}
		return fmt.Errorf("server cors_origins entry %q must be \"*\" or start with http:// or https://", origin)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive")
	}
	if cfg.Codec.MaxPayloadBytes <= 0 || cfg.Codec.MaxPayloadBytes > protocol.MaxPayloadLen {
		return fmt.Errorf("codec max_payload_bytes must be in 1..%d", protocol.MaxPayloadLen)
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
