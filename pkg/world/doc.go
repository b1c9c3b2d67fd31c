// Package world defines world coordinates and the current-world resolver.
//
// The game universe is partitioned into discrete worlds addressed by integer
// coordinates. The server keeps every world's state in shared tables; the
// client only mirrors rows belonging to the world it currently occupies.
//
// # Scope
//
// The "scope" of the client is exactly one Coords value at a time. Moving to
// another world does not re-filter existing caches in place: the session
// tears every subscription down and re-establishes it against the new
// coordinates, so the caches are rebuilt from scratch.
//
// # Resolver
//
// Components that need scope information accept a Resolver rather than
// reading shared state. The session owns a single Manager and injects it
// everywhere; tests inject a Static value.
package world
