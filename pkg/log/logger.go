package log

// Logger is the interface applications implement to receive sync log events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a sync event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking affects
	// row delivery.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns logger, or a NoopLogger when logger is nil.
func OrNoop(logger Logger) Logger {
	if logger == nil {
		return NoopLogger{}
	}
	return logger
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
