package testlog

import (
	"testing"

	"github.com/danmuck/wirecodec/internal/logging"
	"github.com/rs/zerolog/log"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("start")
}

func Logf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
