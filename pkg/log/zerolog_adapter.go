package log

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter writes sync events to a zerolog.Logger.
// Suits deployments that already ship zerolog JSON output.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new ZerologAdapter writing to the given logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event at debug level (errors at error level).
func (a *ZerologAdapter) Log(event Event) {
	var e *zerolog.Event
	if event.Error != nil {
		e = a.logger.Error()
	} else {
		e = a.logger.Debug()
	}

	e = e.Str("category", event.Category.String())

	if event.SessionID != "" {
		e = e.Str("session_id", event.SessionID)
	}
	if event.Family != "" {
		e = e.Str("family", event.Family)
	}
	if event.HandleID != "" {
		e = e.Str("handle", event.HandleID)
	}

	msg := event.Message
	switch {
	case event.StateChange != nil:
		e = e.Str("from", event.StateChange.From).Str("to", event.StateChange.To)
		if msg == "" {
			msg = "state change"
		}
	case event.Row != nil:
		e = e.Str("op", event.Row.Kind).
			Uint64("key", event.Row.Key).
			Bool("in_scope", event.Row.InScope)
		if msg == "" {
			msg = "row change"
		}
	case event.Scope != nil:
		e = e.Str("from", event.Scope.From).Str("to", event.Scope.To)
		if msg == "" {
			msg = "scope change"
		}
	case event.Error != nil:
		e = e.Str("error", event.Error.Message)
		if msg == "" {
			msg = "sync error"
		}
	}

	e.Msg(msg)
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZerologAdapter)(nil)
