package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/system-metaverse/system-go/pkg/connection"
	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/eventbus"
	"github.com/system-metaverse/system-go/pkg/identity"
	"github.com/system-metaverse/system-go/pkg/log"
	"github.com/system-metaverse/system-go/pkg/mirror"
	"github.com/system-metaverse/system-go/pkg/remote"
	"github.com/system-metaverse/system-go/pkg/wire"
	"github.com/system-metaverse/system-go/pkg/world"
)

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the session logger, shared by every component.
func WithLogger(l log.Logger) Option {
	return func(s *Session) { s.logger = log.OrNoop(l) }
}

// WithSource injects a remote source instead of the WebSocket client.
// Used by tests and embedded simulations; the session then never dials.
func WithSource(src remote.Source) Option {
	return func(s *Session) { s.injected = src }
}

// Session is the top-level owner of the client sync machinery. It constructs
// and wires the event bus, world manager, one mirror controller per entity
// family, the orchestrator, the WebSocket client and the connection
// supervisor, and tears all of it down deterministically on Close.
type Session struct {
	cfg    Config
	logger log.Logger

	bus     *eventbus.Bus
	worlds  *world.Manager
	orch    *mirror.Orchestrator
	metrics *Metrics
	store   *StateStore

	id    identity.Token
	hasID bool

	players  *mirror.Controller[entity.Player]
	orbs     *mirror.Controller[entity.EnergyOrb]
	puddles  *mirror.Controller[entity.EnergyPuddle]
	circuits *mirror.Controller[entity.WorldCircuit]

	src      *switchSource
	injected remote.Source

	clientMu sync.Mutex
	client   *remote.Client

	supervisor *connection.Supervisor

	onlineOnce bool
	closeOnce  sync.Once
}

// New creates a session from the given configuration. The session starts
// offline; call Start to connect.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		logger: log.NoopLogger{},
		src:    &switchSource{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.AccountSecret != "" {
		tok, err := identity.Derive([]byte(cfg.AccountSecret), cfg.Realm)
		if err != nil {
			return nil, fmt.Errorf("derive identity: %w", err)
		}
		s.id = tok
		s.hasID = true
	}

	start := cfg.StartWorld
	if cfg.StatePath != "" {
		s.store = NewStateStore(cfg.StatePath)
		saved, err := s.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if saved != nil {
			start = saved.LastWorld
		}
	}

	s.bus = eventbus.New()
	s.worlds = world.NewManager(start)
	s.orch = mirror.NewOrchestrator(s.worlds, s.logger)
	s.metrics = NewMetrics()

	if s.injected != nil {
		s.src.set(s.injected)
	}

	base := mirror.Config{
		Source:       s.src,
		Bus:          s.bus,
		Resolver:     s.worlds,
		Orchestrator: s.orch,
		Logger:       s.logger,
	}
	s.players = mirror.NewController[entity.Player](base)
	s.orbs = mirror.NewController[entity.EnergyOrb](base)
	s.puddles = mirror.NewController[entity.EnergyPuddle](base)
	s.circuits = mirror.NewController[entity.WorldCircuit](base)

	observe(s, s.players)
	observe(s, s.orbs)
	observe(s, s.puddles)
	observe(s, s.circuits)

	s.supervisor = connection.NewSupervisor(connection.SupervisorConfig{
		Dial: s.dial,
		Backoff: connection.BackoffConfig{
			InitialDelay: cfg.Reconnect.InitialDelay,
			MaxDelay:     cfg.Reconnect.MaxDelay,
		},
		Logger:    s.logger,
		OnOnline:  s.handleOnline,
		OnOffline: s.handleOffline,
	})
	if cfg.Reconnect.Disabled {
		s.supervisor.SetRetry(false)
	}

	return s, nil
}

// Start connects to the server and establishes the initial subscriptions.
func (s *Session) Start(ctx context.Context) error {
	return s.supervisor.Connect(ctx)
}

// Close disconnects, tears down every subscription, persists the client
// state and clears the bus. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.supervisor.Close()

		s.clientMu.Lock()
		client := s.client
		s.client = nil
		s.clientMu.Unlock()
		if client != nil {
			client.Close()
		}

		// No dispatch goroutine is alive past this point, so touching the
		// controllers directly is safe.
		s.orch.TeardownAll()

		if s.store != nil {
			st := &State{LastWorld: s.worlds.Current()}
			if s.hasID {
				st.Identity = s.id.String()
			}
			if err := s.store.Save(st); err != nil {
				s.logger.Log(log.NewError("", fmt.Errorf("save state: %w", err)))
			}
		}

		s.bus.Clear()
	})
}

// SetScope moves the client to a new world. Every cache tears down and
// repopulates against the new scope.
func (s *Session) SetScope(c world.Coords) {
	s.exec(func() {
		s.orch.SetScope(c)
		s.metrics.Resubscribes.Inc()
	})
}

// Bus returns the session's event bus for consumers to subscribe on.
func (s *Session) Bus() *eventbus.Bus { return s.bus }

// Scope returns the current world scope.
func (s *Session) Scope() world.Coords { return s.worlds.Current() }

// Online reports whether the server link is live.
func (s *Session) Online() bool { return s.supervisor.Online() }

// Identity returns the derived client identity, when credentials were
// configured.
func (s *Session) Identity() (identity.Token, bool) { return s.id, s.hasID }

// Metrics returns the session's Prometheus collectors.
func (s *Session) Metrics() *Metrics { return s.metrics }

// Counts reports the cache size per entity family.
func (s *Session) Counts() map[entity.Family]int { return s.orch.Counts() }

// States reports the subscription state per entity family.
func (s *Session) States() map[entity.Family]mirror.State { return s.orch.States() }

// Players returns the player cache controller.
func (s *Session) Players() *mirror.Controller[entity.Player] { return s.players }

// Orbs returns the energy orb cache controller.
func (s *Session) Orbs() *mirror.Controller[entity.EnergyOrb] { return s.orbs }

// Puddles returns the energy puddle cache controller.
func (s *Session) Puddles() *mirror.Controller[entity.EnergyPuddle] { return s.puddles }

// Circuits returns the world circuit cache controller.
func (s *Session) Circuits() *mirror.Controller[entity.WorldCircuit] { return s.circuits }

// dial establishes a fresh connection. Every dial builds a new WebSocket
// client; the previous one, if any, is closed first so only one dispatch
// goroutine ever runs.
func (s *Session) dial(ctx context.Context) error {
	if s.injected != nil {
		return nil
	}

	client := remote.NewClient(remote.ClientConfig{
		URL:          s.cfg.ServerURL,
		PingInterval: s.cfg.PingInterval,
		Logger:       s.logger,
		OnDisconnect: func(error) { s.supervisor.ConnectionLost() },
	})
	if err := client.Dial(ctx); err != nil {
		return err
	}

	s.clientMu.Lock()
	old := s.client
	s.client = client
	s.clientMu.Unlock()
	if old != nil {
		old.Close()
	}

	s.src.set(client)
	return nil
}

// handleOnline runs after every successful dial. The server forgets all
// subscription state between connections, so every tracker resubscribes.
func (s *Session) handleOnline() {
	s.metrics.Online.Set(1)
	if s.onlineOnce {
		s.metrics.Reconnects.Inc()
	}
	s.onlineOnce = true

	s.exec(func() {
		s.orch.ResubscribeAll()
		s.metrics.Resubscribes.Inc()
	})
}

func (s *Session) handleOffline() {
	s.metrics.Online.Set(0)
}

// exec runs fn on the dispatch goroutine when a live client exists, so
// controller mutations stay serialized with row delivery. With an injected
// source delivery is already synchronous and fn runs inline.
func (s *Session) exec(fn func()) {
	s.clientMu.Lock()
	client := s.client
	s.clientMu.Unlock()

	if client != nil {
		client.Do(fn)
		return
	}
	fn()
}

// observe feeds one controller's bus events into the session metrics.
func observe[T entity.Record](s *Session, c *mirror.Controller[T]) {
	fam := c.Family().String()
	size := s.metrics.CacheSize.WithLabelValues(fam)

	eventbus.Subscribe(s.bus, func(mirror.Created[T]) {
		s.metrics.RowEvents.WithLabelValues(fam, "insert").Inc()
		size.Set(float64(c.Len()))
	})
	eventbus.Subscribe(s.bus, func(mirror.Updated[T]) {
		s.metrics.RowEvents.WithLabelValues(fam, "update").Inc()
	})
	eventbus.Subscribe(s.bus, func(mirror.Deleted[T]) {
		s.metrics.RowEvents.WithLabelValues(fam, "delete").Inc()
		size.Set(float64(c.Len()))
	})
}

// switchSource is a Source that delegates to the current connection's
// client. Controllers hold the switchSource for their whole lifetime while
// the session swaps the client underneath on every reconnect.
type switchSource struct {
	mu  sync.RWMutex
	cur remote.Source
}

func (w *switchSource) set(src remote.Source) {
	w.mu.Lock()
	w.cur = src
	w.mu.Unlock()
}

func (w *switchSource) get() remote.Source {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cur
}

// Connected implements remote.Source.
func (w *switchSource) Connected() bool {
	cur := w.get()
	return cur != nil && cur.Connected()
}

// Subscribe implements remote.Source.
func (w *switchSource) Subscribe(queries []wire.Query, acks remote.SubscriptionCallbacks, rows map[entity.Family]remote.RowCallbacks) (remote.Handle, error) {
	cur := w.get()
	if cur == nil {
		return "", remote.ErrNotConnected
	}
	return cur.Subscribe(queries, acks, rows)
}

// Unsubscribe implements remote.Source.
func (w *switchSource) Unsubscribe(h remote.Handle) {
	if cur := w.get(); cur != nil {
		cur.Unsubscribe(h)
	}
}

// Compile-time interface satisfaction check.
var _ remote.Source = (*switchSource)(nil)
