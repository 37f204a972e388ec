package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing JSON to stdout, tagged with the
// component name.
func New(component string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
}
