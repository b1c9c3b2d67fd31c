package log

import (
	"time"
)

// Event represents a sync log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the client session (UUID).
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Family is the entity family the event concerns, if any.
	Family string `cbor:"4,keyasint,omitempty"`

	// HandleID is the subscription handle the event concerns, if any.
	HandleID string `cbor:"5,keyasint,omitempty"`

	// Message is a free-form description.
	Message string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (at most one of these is set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // Controller/connection state
	Row         *RowEvent         `cbor:"11,keyasint,omitempty"` // Row-level changes
	Scope       *ScopeEvent       `cbor:"12,keyasint,omitempty"` // World scope changes
	Error       *ErrorEvent       `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Category classifies a sync event.
type Category uint8

const (
	// CategoryConnection covers connection lifecycle events.
	CategoryConnection Category = 0

	// CategorySubscription covers subscribe/unsubscribe and acknowledgments.
	CategorySubscription Category = 1

	// CategoryRow covers row-level cache changes.
	CategoryRow Category = 2

	// CategoryScope covers world scope changes.
	CategoryScope Category = 3

	// CategoryError covers failures at any layer.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryConnection:
		return "CONNECTION"
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategoryRow:
		return "ROW"
	case CategoryScope:
		return "SCOPE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a state machine transition.
type StateChangeEvent struct {
	From string `cbor:"1,keyasint"`
	To   string `cbor:"2,keyasint"`
}

// RowEvent captures one row-level cache change.
type RowEvent struct {
	// Kind is the row operation name (INSERT, UPDATE, DELETE).
	Kind string `cbor:"1,keyasint"`

	// Key is the affected record's identifier.
	Key uint64 `cbor:"2,keyasint"`

	// InScope reports whether the row passed the scope filter.
	InScope bool `cbor:"3,keyasint"`
}

// ScopeEvent captures a world scope change.
type ScopeEvent struct {
	From string `cbor:"1,keyasint"`
	To   string `cbor:"2,keyasint"`
}

// ErrorEvent captures an error.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`
}

// NewStateChange builds a state transition event.
func NewStateChange(category Category, family, from, to string) Event {
	return Event{
		Timestamp:   time.Now(),
		Category:    category,
		Family:      family,
		StateChange: &StateChangeEvent{From: from, To: to},
	}
}

// NewRow builds a row change event.
func NewRow(family, kind string, key uint64, inScope bool) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  CategoryRow,
		Family:    family,
		Row:       &RowEvent{Kind: kind, Key: key, InScope: inScope},
	}
}

// NewScope builds a scope change event.
func NewScope(from, to string) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  CategoryScope,
		Scope:     &ScopeEvent{From: from, To: to},
	}
}

// NewError builds an error event.
func NewError(family string, err error) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  CategoryError,
		Family:    family,
		Error:     &ErrorEvent{Message: err.Error()},
	}
}

// NewMessage builds a free-form event.
func NewMessage(category Category, msg string) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  category,
		Message:   msg,
	}
}
