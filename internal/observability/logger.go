package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/logging"
)

// InitLogger builds the console logger handed into the client core.
// The core never logs through globals; the returned logger is the
// injectable hook.
func InitLogger(app string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    logging.NoColor(),
	}
	ctx := zerolog.New(output).With().Str("app", app)
	if logging.Timestamps() {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}
