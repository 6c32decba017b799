// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// ParseEnvironment normalises v; unknown values fall back to Development.
func ParseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Production:
		return Production
	case Testing:
		return Testing
	default:
		return Development
	}
}

type Options struct {
	Environment Environment
	Output      io.Writer
}

// Init installs the global logger. Production logs JSON at info level;
// everything else gets a console writer at debug level.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Environment == Production {
		log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

// Component returns a child logger tagged with the component name, e.g.
// "proposal_download".
func Component(name string) *zerolog.Logger {
	l := log.With().Str("component", name).Logger()
	return &l
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
