// Package connection supervises the lifetime of the server link.
//
// This package handles:
//   - Exponential backoff between reconnection attempts
//   - Jitter to prevent thundering herd
//   - Connection state tracking
//   - Automatic redial after connection loss
//
// # Retry Strategy
//
// When the link drops, the supervisor redials with exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s
//  3. Maximum delay: 30 seconds
//  4. Continue at 30s until successful
//  5. Reset to 1s on successful reconnection
//
// # Jitter
//
//	actual_delay = base_delay + random(0, base_delay * 0.2)
//
// # Subscription State
//
// The server forgets every subscription handle when a connection dies.
// OnOnline fires after every successful dial, including redials, so the
// session can resubscribe all of its trackers there.
package connection
