package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// TraceLogger adapts zerolog.Logger to pgx tracelog.Logger so query
// traces land in the dedicated query log.
type TraceLogger struct {
	logger zerolog.Logger
}

// NewTraceLogger creates a new trace logger
func NewTraceLogger(logger zerolog.Logger) *TraceLogger {
	return &TraceLogger{logger: logger}
}

// Log implements tracelog.Logger
func (l *TraceLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	var event *zerolog.Event

	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		event = l.logger.Info()
	}

	for key, value := range data {
		event = event.Interface(key, value)
	}

	event.Msg(msg)
}
