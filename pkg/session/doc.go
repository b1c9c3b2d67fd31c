/*
Package session assembles the client sync stack.

A Session owns the event bus, the world manager, one mirror controller per
entity family, the subscription orchestrator, the WebSocket client and the
connection supervisor. Nothing in this module is a package-level singleton;
construct a Session, Start it, and Close it when done.

	cfg, err := session.LoadConfig("system.yaml")
	if err != nil { ... }

	s, err := session.New(cfg, session.WithLogger(logger))
	if err != nil { ... }
	defer s.Close()

	if err := s.Start(ctx); err != nil { ... }

	eventbus.Subscribe(s.Bus(), func(e mirror.Created[entity.EnergyOrb]) {
		// render the orb
	})

# Configuration

Configuration loads from a YAML file with SYSTEM_-prefixed environment
overrides. A small JSON state file remembers the last world scope and the
derived identity between runs; it never holds authoritative data.

# Reconnection

The server forgets all subscription state when a connection dies. The
session's supervisor redials with jittered exponential backoff and, once
back online, resubscribes every controller against the current scope.

# Metrics

Each session registers Prometheus collectors on a private registry: cache
sizes per family, row event counters, resubscribe and reconnect counters,
and an online gauge. Serve Metrics().Handler() to expose them.
*/
package session
