package config

import (
	"github.com/danmuck/wirecodec/internal/logging"
	"github.com/danmuck/wirecodec/internal/protocol/frame"
)

// Logging maps the [log] section onto a logger config for app.
func (c Config) Logging(app string) logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	out.App = app
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		out.Level = lvl
	}
	out.Timestamp = c.Log.Timestamp
	out.NoColor = c.Log.NoColor
	out.JSON = c.Log.JSON
	return out
}

func (c Config) FrameLimits() frame.Limits {
	return frame.Limits{MaxPayloadBytes: c.Codec.MaxPayloadBytes}
}
