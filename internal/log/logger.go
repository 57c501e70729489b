package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. level overrides the environment default
// when it parses.
func New(environment string, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Logger()

	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(parsed)
	} else if environment != "production" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return logger
}
