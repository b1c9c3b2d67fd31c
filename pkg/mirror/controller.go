package mirror

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/eventbus"
	"github.com/system-metaverse/system-go/pkg/log"
	"github.com/system-metaverse/system-go/pkg/remote"
	"github.com/system-metaverse/system-go/pkg/wire"
	"github.com/system-metaverse/system-go/pkg/world"
)

// State represents a controller's subscription state.
type State uint8

const (
	// StateUnsubscribed indicates no subscription exists.
	StateUnsubscribed State = iota

	// StateSubscribing indicates a subscribe request awaits acknowledgment.
	StateSubscribing

	// StateSubscribed indicates an acknowledged, live subscription.
	StateSubscribed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnsubscribed:
		return "UNSUBSCRIBED"
	case StateSubscribing:
		return "SUBSCRIBING"
	case StateSubscribed:
		return "SUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Controller.
type Config struct {
	// Source is the remote database boundary.
	Source remote.Source

	// Bus receives Created/Updated/Deleted events.
	Bus *eventbus.Bus

	// Resolver supplies the current world scope at subscribe time.
	Resolver world.Resolver

	// Orchestrator, when set, has the controller register itself at
	// creation.
	Orchestrator *Orchestrator

	// Logger receives sync events. Nil disables logging.
	Logger log.Logger

	// OnError receives subscription failures reported by the source.
	// Optional; failures are logged regardless.
	OnError func(err error)
}

// Controller maintains the local cache of one entity family.
//
// A controller owns at most one live subscription handle at a time. It
// filters incoming rows by the scope captured when the subscription was
// established, mutates its cache, and publishes typed events on the bus.
//
// Subscribe, Unsubscribe and the row callbacks must run on the source's
// dispatch goroutine. The read accessors (State, Scope, Len, Get,
// Snapshot) take a read lock and are safe from any goroutine.
type Controller[T entity.Record] struct {
	family   entity.Family
	source   remote.Source
	bus      *eventbus.Bus
	resolver world.Resolver
	logger   log.Logger
	onError  func(error)

	// mu guards the fields below. Only the dispatch goroutine writes;
	// consumers read concurrently through the accessors.
	mu     sync.RWMutex
	state  State
	scope  world.Coords
	handle remote.Handle
	cache  map[uint64]T
}

// NewController creates a controller for record type T and registers it
// with the orchestrator when one is configured.
func NewController[T entity.Record](cfg Config) *Controller[T] {
	var zero T
	c := &Controller[T]{
		family:   zero.Family(),
		source:   cfg.Source,
		bus:      cfg.Bus,
		resolver: cfg.Resolver,
		logger:   log.OrNoop(cfg.Logger),
		onError:  cfg.OnError,
		cache:    make(map[uint64]T),
	}

	if cfg.Orchestrator != nil {
		cfg.Orchestrator.Register(c)
	}

	return c
}

// Family returns the entity family this controller tracks.
func (c *Controller[T]) Family() entity.Family { return c.family }

// State returns the controller's subscription state.
func (c *Controller[T]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Scope returns the world scope captured at the last Subscribe.
func (c *Controller[T]) Scope() world.Coords {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// Len returns the number of cached records.
func (c *Controller[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Get returns the cached record with the given key.
func (c *Controller[T]) Get(key uint64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.cache[key]
	return rec, ok
}

// Snapshot returns the currently cached records, in no particular order.
func (c *Controller[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.cache))
	for _, rec := range c.cache {
		out = append(out, rec)
	}
	return out
}

// Subscribe establishes a subscription for the controller's family, scoped
// to the resolver's current world.
//
// Without a live connection the call is a logged no-op. An existing
// subscription is torn down first, so at most one handle is ever live and
// row callbacks never double up. The controller stays in SUBSCRIBING until
// the source acknowledges; on rejection it reverts to UNSUBSCRIBED and does
// not retry.
func (c *Controller[T]) Subscribe() {
	if !c.source.Connected() {
		c.logger.Log(log.NewMessage(log.CategorySubscription,
			c.family.String()+": subscribe skipped, no live connection"))
		return
	}

	c.mu.Lock()
	if c.state != StateUnsubscribed {
		c.unsubscribeLocked()
	}

	c.scope = c.resolver.Current()
	c.cache = make(map[uint64]T)
	c.setStateLocked(StateSubscribing)
	c.mu.Unlock()

	// The row callbacks close over h so that events tied to a superseded
	// handle are discarded after the next resubscribe.
	var h remote.Handle
	rows := map[entity.Family]remote.RowCallbacks{
		c.family: {
			OnInsert: func(row cbor.RawMessage) { c.applyInsert(h, row) },
			OnUpdate: func(_, newRow cbor.RawMessage) { c.applyUpdate(h, newRow) },
			OnDelete: func(row cbor.RawMessage) { c.applyDelete(h, row) },
		},
	}
	acks := remote.SubscriptionCallbacks{
		OnApplied: c.handleApplied,
		OnError:   c.handleError,
	}

	var err error
	h, err = c.source.Subscribe([]wire.Query{{Family: c.family}}, acks, rows)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateUnsubscribed)
		c.mu.Unlock()
		c.fail(fmt.Errorf("subscribe %s: %w", c.family, err))
		return
	}

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
}

// Unsubscribe cancels the subscription, deregisters the row callbacks and
// clears the cache. Safe to call when already unsubscribed.
func (c *Controller[T]) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribeLocked()
}

// unsubscribeLocked tears the subscription down. Caller holds c.mu.
func (c *Controller[T]) unsubscribeLocked() {
	if !c.handle.IsZero() {
		c.source.Unsubscribe(c.handle)
		c.handle = ""
	}
	c.cache = make(map[uint64]T)
	if c.state != StateUnsubscribed {
		c.setStateLocked(StateUnsubscribed)
	}
}

// handleApplied processes a subscription acknowledgment.
func (c *Controller[T]) handleApplied(h remote.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.IsZero() || h != c.handle {
		c.logStale("acknowledgment", h)
		return
	}
	c.setStateLocked(StateSubscribed)
}

// handleError processes a subscription rejection.
func (c *Controller[T]) handleError(h remote.Handle, err error) {
	c.mu.Lock()
	if h.IsZero() || h != c.handle {
		c.mu.Unlock()
		c.logStale("error acknowledgment", h)
		return
	}

	c.handle = ""
	c.cache = make(map[uint64]T)
	c.setStateLocked(StateUnsubscribed)
	c.mu.Unlock()

	c.fail(fmt.Errorf("subscription rejected for %s: %w", c.family, err))
}

// applyInsert caches an inserted row when it belongs to the current scope
// and publishes a Created event.
func (c *Controller[T]) applyInsert(h remote.Handle, row cbor.RawMessage) {
	var rec T
	if err := wire.Unmarshal(row, &rec); err != nil {
		c.logger.Log(log.NewError(c.family.String(), fmt.Errorf("decode insert: %w", err)))
		return
	}

	c.mu.Lock()
	if h.IsZero() || h != c.handle {
		c.mu.Unlock()
		c.logStale("insert", h)
		return
	}

	inScope := rec.World() == c.scope
	if inScope {
		c.cache[rec.Key()] = rec
	}
	c.mu.Unlock()

	c.logger.Log(log.NewRow(c.family.String(), "INSERT", rec.Key(), inScope))
	if !inScope {
		return
	}
	eventbus.Publish(c.bus, Created[T]{Record: rec})
}

// applyUpdate replaces a cached row and publishes an Updated event carrying
// the prior and new snapshots.
//
// Membership is decided at insert time only: updates for keys that never
// entered the cache are dropped, and a row whose coordinates move away from
// the scope is NOT evicted here. Eviction happens solely through deletes.
func (c *Controller[T]) applyUpdate(h remote.Handle, newRow cbor.RawMessage) {
	var rec T
	if err := wire.Unmarshal(newRow, &rec); err != nil {
		c.logger.Log(log.NewError(c.family.String(), fmt.Errorf("decode update: %w", err)))
		return
	}

	c.mu.Lock()
	if h.IsZero() || h != c.handle {
		c.mu.Unlock()
		c.logStale("update", h)
		return
	}

	prior, ok := c.cache[rec.Key()]
	if ok {
		c.cache[rec.Key()] = rec
	}
	c.mu.Unlock()

	c.logger.Log(log.NewRow(c.family.String(), "UPDATE", rec.Key(), ok))
	if !ok {
		return
	}
	eventbus.Publish(c.bus, Updated[T]{Old: prior, New: rec})
}

// applyDelete removes a cached row and publishes a Deleted event.
// Deletes for unknown keys are no-ops.
func (c *Controller[T]) applyDelete(h remote.Handle, row cbor.RawMessage) {
	var rec T
	if err := wire.Unmarshal(row, &rec); err != nil {
		c.logger.Log(log.NewError(c.family.String(), fmt.Errorf("decode delete: %w", err)))
		return
	}

	c.mu.Lock()
	if h.IsZero() || h != c.handle {
		c.mu.Unlock()
		c.logStale("delete", h)
		return
	}

	cached, ok := c.cache[rec.Key()]
	if ok {
		delete(c.cache, rec.Key())
	}
	c.mu.Unlock()

	c.logger.Log(log.NewRow(c.family.String(), "DELETE", rec.Key(), ok))
	if !ok {
		return
	}
	eventbus.Publish(c.bus, Deleted[T]{Record: cached})
}

// setStateLocked transitions the state machine and logs the transition.
// Caller holds c.mu.
func (c *Controller[T]) setStateLocked(next State) {
	prev := c.state
	c.state = next
	c.logger.Log(log.NewStateChange(log.CategorySubscription, c.family.String(),
		prev.String(), next.String()))
}

// fail reports a subscription failure.
func (c *Controller[T]) fail(err error) {
	c.logger.Log(log.NewError(c.family.String(), err))
	if c.onError != nil {
		c.onError(err)
	}
}

// logStale records a dropped callback for a dead handle.
func (c *Controller[T]) logStale(what string, h remote.Handle) {
	c.logger.Log(log.NewMessage(log.CategorySubscription,
		fmt.Sprintf("%s: dropping stale %s for handle %s", c.family, what, h)))
}

// Compile-time interface satisfaction check.
var _ Tracker = (*Controller[entity.Player])(nil)
