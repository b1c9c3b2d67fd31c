// Package eventbus implements the typed event bus the mirror publishes
// domain events on.
//
// # Dispatch Semantics
//
// Publish is synchronous: every handler registered for the event's exact
// type runs on the publisher's goroutine, in registration order, before
// Publish returns. No ordering is defined across different event types.
//
// # Failure Isolation
//
// A handler that panics is isolated: the panic is recovered, optionally
// reported through SetPanicHandler, and delivery continues with the next
// handler. The bus never persists or replays events.
//
// # Lifecycle
//
// The bus has no notion of session lifetime. Callers that tear a session
// down are responsible for calling Clear (or ClearType) at the boundary.
package eventbus
