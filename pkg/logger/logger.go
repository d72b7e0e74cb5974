package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger used across the application.
// Level comes from LOG_LEVEL when set; unknown values fall back to info.
// Pretty console output is enabled with LOG_PRETTY=true, otherwise logs are
// structured JSON.
func Setup() {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}
