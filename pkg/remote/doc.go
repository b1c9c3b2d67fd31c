// Package remote is the boundary to the hosted game database.
//
// The database owns the authoritative tables; the client only issues
// declarative "all rows of family F" queries and receives an acknowledgment
// followed by a stream of row-level changes. Source is the interface the
// mirror layer consumes; Client implements it over a WebSocket carrying the
// CBOR messages of pkg/wire.
//
// # Delivery Model
//
// Every callback (acknowledgment or row change) is delivered on one
// dispatch goroutine, in arrival order. Consumers therefore never need
// locks around state touched only from callbacks. Subscribe returns before
// any callback for its handle can run.
//
// # Handles
//
// Each Subscribe call gets a fresh Handle. Unsubscribe deregisters the
// handle immediately, so server messages that are already in flight for it
// are discarded rather than delivered; a late acknowledgment for a
// superseded handle never reaches the subscriber.
package remote
