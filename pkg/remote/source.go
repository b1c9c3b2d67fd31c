package remote

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/wire"
)

// Source errors.
var (
	ErrNotConnected      = errors.New("not connected to remote source")
	ErrHandleNotFound    = errors.New("subscription handle not found")
	ErrNoQueries         = errors.New("subscribe requires at least one query")
	ErrDuplicateCallback = errors.New("row callbacks already registered for family")
)

// Handle is the registration token for one active subscription. Handles are
// compared by value to discard callbacks belonging to superseded or torn-down
// subscriptions.
type Handle string

// NewHandle returns a fresh unique handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h == "" }

// String returns the handle's UUID.
func (h Handle) String() string { return string(h) }

// RowCallbacks receives row-level changes for one entity family. Rows are
// opaque CBOR payloads; the subscriber decodes them into its record type.
// The source delivers every row change in the family with no scope
// filtering.
type RowCallbacks struct {
	// OnInsert is invoked for each newly inserted row.
	OnInsert func(row cbor.RawMessage)

	// OnUpdate is invoked with the prior and new snapshots of a changed row.
	OnUpdate func(oldRow, newRow cbor.RawMessage)

	// OnDelete is invoked for each removed row.
	OnDelete func(row cbor.RawMessage)
}

// SubscriptionCallbacks receives the acknowledgment for a subscribe request.
// Exactly one of OnApplied or OnError is invoked per Subscribe call.
type SubscriptionCallbacks struct {
	// OnApplied signals that the server accepted the subscription and row
	// delivery has begun.
	OnApplied func(h Handle)

	// OnError signals that the server rejected the subscription.
	OnError func(h Handle, err error)
}

// Source is the boundary to the hosted game database. Implemented by Client
// over a WebSocket; tests use a scripted fake.
//
// All callbacks registered through Subscribe are delivered serially on the
// source's single dispatch goroutine. Subscribe itself returns before any
// callback for the returned handle runs.
type Source interface {
	// Connected reports whether a live connection exists.
	Connected() bool

	// Subscribe issues the queries and registers acknowledgment and
	// per-family row callbacks under a fresh handle.
	// Returns ErrNotConnected when no live connection exists.
	Subscribe(queries []wire.Query, acks SubscriptionCallbacks, rows map[entity.Family]RowCallbacks) (Handle, error)

	// Unsubscribe cancels the subscription and deregisters its callbacks.
	// Unknown handles are ignored; callbacks for a cancelled handle are
	// never invoked again.
	Unsubscribe(h Handle)
}
