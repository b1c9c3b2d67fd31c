package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes sync events to an slog.Logger.
// Useful for development when you want to see sync events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level
// (errors at Error level).
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.Family != "" {
		attrs = append(attrs, slog.String("family", event.Family))
	}
	if event.HandleID != "" {
		attrs = append(attrs, slog.String("handle", event.HandleID))
	}

	level := slog.LevelDebug
	msg := event.Message
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("from", event.StateChange.From),
			slog.String("to", event.StateChange.To),
		)
		if msg == "" {
			msg = "state change"
		}
	case event.Row != nil:
		attrs = append(attrs,
			slog.String("op", event.Row.Kind),
			slog.Uint64("key", event.Row.Key),
			slog.Bool("in_scope", event.Row.InScope),
		)
		if msg == "" {
			msg = "row change"
		}
	case event.Scope != nil:
		attrs = append(attrs,
			slog.String("from", event.Scope.From),
			slog.String("to", event.Scope.To),
		)
		if msg == "" {
			msg = "scope change"
		}
	case event.Error != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if msg == "" {
			msg = "sync error"
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
