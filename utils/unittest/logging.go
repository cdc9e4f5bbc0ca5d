package unittest

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

// Logger returns the logger handed to components under test. It discards
// everything unless tests run with -vv.
func Logger() zerolog.Logger {
	if !*verbose {
		return zerolog.Nop()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMicro}
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
