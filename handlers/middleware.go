package handlers

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"

	"proposalgen/logx"
)

// RequestLogger logs every request with its status and latency. Server
// errors are logged at error level, client errors at warn.
func RequestLogger() func(e *core.RequestEvent) error {
	log := logx.Component("http")
	return func(e *core.RequestEvent) error {
		start := time.Now()
		err := e.Next()

		status := e.Status()
		level := zerolog.DebugLevel
		switch {
		case err != nil || status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Err(err).
			Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
