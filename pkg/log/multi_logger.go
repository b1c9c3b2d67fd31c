package log

// MultiLogger fans each sync event out to several sinks. A session that
// wants human-readable console output next to a structured JSON stream
// wraps a SlogAdapter and a ZerologAdapter in one of these.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger creates a MultiLogger over the given sinks. Nil sinks are
// dropped.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiLogger{sinks: kept}
}

// Log hands the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
