package cardano

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var log = zerolog.New(nil).Output(zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.TimeOnly,
}).With().Timestamp().Logger()

func Log() *zerolog.Logger {
	return &log
}

func init() {
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLogLevel applies the first non-empty of the flag value, the named
// environment variable or "info".
func SetLogLevel(flagValue string, envKey string) (level zerolog.Level, err error) {
	value := flagValue
	if value == "" {
		value = os.Getenv(envKey)
	}
	if value == "" {
		value = "info"
	}

	level, err = zerolog.ParseLevel(strings.ToLower(value))
	if err != nil {
		err = errors.Wrapf(err, "invalid log level '%s'", value)
		return
	}

	zerolog.SetGlobalLevel(level)
	return
}

// StackTracerMessage renders the frames recorded by pkg/errors, one per line.
// Errors without a stack give an empty string.
func StackTracerMessage(err error) string {
	type StackTracer interface {
		StackTrace() errors.StackTrace
	}

	var errString string

	if err != nil {
		if stackTracer, isStackTracer := err.(StackTracer); isStackTracer {
			for _, f := range stackTracer.StackTrace() {
				errString += fmt.Sprintf("%+v\n", f)
			}
		}
	}

	return errString
}
