package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/logging"
)

// Start configures test logging and returns a logger that writes
// through t, suitable as the injected observability hook.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Str("test", t.Name()).Logger()
}
