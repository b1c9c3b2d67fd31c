package mirror

import (
	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/log"
	"github.com/system-metaverse/system-go/pkg/world"
)

// Tracker is the orchestrator's view of a controller, independent of the
// record type parameter.
type Tracker interface {
	// Family returns the entity family being tracked.
	Family() entity.Family

	// State returns the subscription state.
	State() State

	// Len returns the number of cached records.
	Len() int

	// Subscribe establishes a subscription scoped to the current world.
	Subscribe()

	// Unsubscribe tears the subscription down and clears the cache.
	Unsubscribe()
}

// Orchestrator coordinates scope changes across a set of controllers.
//
// It is the sole mutator of the world manager: a SetScope call updates the
// manager and then walks every registered tracker through a teardown and
// resubscribe, so all caches repopulate against the new scope atomically
// from the client's point of view.
//
// SetScope, ResubscribeAll and TeardownAll must run on the source's
// dispatch goroutine, like the controller mutations they drive. Counts and
// States only touch the controllers' locked read accessors and are safe
// from any goroutine.
type Orchestrator struct {
	manager  *world.Manager
	logger   log.Logger
	trackers []Tracker
}

// NewOrchestrator creates an orchestrator over the given world manager.
func NewOrchestrator(manager *world.Manager, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		manager: manager,
		logger:  log.OrNoop(logger),
	}
}

// Register adds a tracker. Controllers call this themselves when created
// with Config.Orchestrator set. Registration order determines resubscribe
// order.
func (o *Orchestrator) Register(t Tracker) {
	o.trackers = append(o.trackers, t)
}

// SetScope moves the client to a new world and resubscribes every tracker
// against it. Setting the current scope again is a no-op.
func (o *Orchestrator) SetScope(next world.Coords) {
	old := o.manager.Current()
	if old == next {
		return
	}

	o.logger.Log(log.NewScope(old.String(), next.String()))
	o.manager.Set(next)
	o.ResubscribeAll()
}

// ResubscribeAll tears down and re-establishes every tracker's subscription
// against the manager's current world. Used on scope changes and after a
// reconnect, when the server has forgotten all prior handles.
func (o *Orchestrator) ResubscribeAll() {
	for _, t := range o.trackers {
		t.Unsubscribe()
		t.Subscribe()
	}
}

// TeardownAll unsubscribes every tracker, leaving all caches empty.
func (o *Orchestrator) TeardownAll() {
	for _, t := range o.trackers {
		t.Unsubscribe()
	}
}

// Counts reports the cache size per family.
func (o *Orchestrator) Counts() map[entity.Family]int {
	out := make(map[entity.Family]int, len(o.trackers))
	for _, t := range o.trackers {
		out[t.Family()] = t.Len()
	}
	return out
}

// States reports the subscription state per family.
func (o *Orchestrator) States() map[entity.Family]State {
	out := make(map[entity.Family]State, len(o.trackers))
	for _, t := range o.trackers {
		out[t.Family()] = t.State()
	}
	return out
}
