/*
Package mirror keeps local caches of remote entity tables in sync.

One Controller exists per entity family (players, energy orbs, energy
puddles, world circuits). Each controller owns at most one live
subscription handle, filters incoming rows against the world scope
captured at subscribe time, and republishes cache mutations as typed
Created/Updated/Deleted events on the session's event bus.

# Scope semantics

Scope filtering applies at insert time only. A row that enters the cache
stays cached until the server deletes it or the subscription is torn
down, even if a later update moves its coordinates out of scope. Updates
for rows that never entered the cache are dropped.

# Orchestration

The Orchestrator is the single mutator of the world manager. Moving the
client to a new world resubscribes every registered controller, so all
caches repopulate against the new scope in one pass. It also drives the
resubscribe-after-reconnect and full-teardown paths.

# Threading

Everything that mutates a controller (Subscribe, Unsubscribe, the row
callbacks, and the orchestrator operations that drive them) must run on
the remote source's dispatch goroutine, which delivers server messages
one at a time. The read accessors (State, Scope, Len, Get, Snapshot and
the orchestrator's Counts and States) take a read lock over the cache
and are safe to call from any goroutine, so UI and tooling can inspect
the caches while rows are being applied.
*/
package mirror
