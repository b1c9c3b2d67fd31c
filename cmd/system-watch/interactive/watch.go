// Package interactive provides the interactive command-line interface
// for the system-watch inspector.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/eventbus"
	"github.com/system-metaverse/system-go/pkg/mirror"
	"github.com/system-metaverse/system-go/pkg/session"
	"github.com/system-metaverse/system-go/pkg/world"
)

// Watch handles interactive mode for system-watch.
type Watch struct {
	sess *session.Session
	rl   *readline.Instance

	// Live bus subscriptions created by the watch command.
	tails []eventbus.Subscription
}

// New creates a new interactive watch handler.
func New(sess *session.Session) (*Watch, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "system> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Watch{sess: sess, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with input.
func (w *Watch) Stdout() io.Writer {
	return w.rl.Stdout()
}

// Run starts the interactive command loop.
func (w *Watch) Run(ctx context.Context, cancel context.CancelFunc) {
	defer w.rl.Close()

	w.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := w.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(w.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			w.printHelp()

		case "status":
			w.cmdStatus()

		case "scope":
			w.cmdScope(args)

		case "counts":
			w.cmdCounts()

		case "list", "ls":
			w.cmdList(args)

		case "watch":
			w.cmdWatch(args)

		case "unwatch":
			w.cmdUnwatch()

		case "quit", "exit", "q":
			fmt.Fprintln(w.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(w.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (w *Watch) printHelp() {
	fmt.Fprintln(w.rl.Stdout(), `
SYSTEM Watch Commands:
  Scope:
    scope              - Show the current world scope
    scope <x> <y> <z>  - Move to a world and resubscribe all caches

  Caches:
    counts             - Show cache sizes per entity family
    list <family>      - Dump the cached rows of one family

  Live Events:
    watch              - Tail Created/Updated/Deleted events for all families
    unwatch            - Stop tailing

  General:
    status             - Show connection and subscription status
    help               - Show this help
    quit               - Exit

  Families: players, orbs, puddles, circuits`)
}

// cmdStatus shows the session status.
func (w *Watch) cmdStatus() {
	out := w.rl.Stdout()

	fmt.Fprintln(out, "\nSession Status")
	fmt.Fprintln(out, "-------------------------------------------")

	link := "OFFLINE"
	if w.sess.Online() {
		link = "ONLINE"
	}
	fmt.Fprintf(out, "  Connection: %s\n", link)
	fmt.Fprintf(out, "  Scope:      %s\n", w.sess.Scope())

	if tok, ok := w.sess.Identity(); ok {
		fmt.Fprintf(out, "  Identity:   %s\n", tok.String()[:16])
	}

	counts := w.sess.Counts()
	for _, fam := range entity.Families() {
		fmt.Fprintf(out, "  %-13s %-12s %d rows\n",
			fam.String()+":", w.sess.States()[fam], counts[fam])
	}
	fmt.Fprintln(out)
}

// cmdScope shows or changes the world scope.
func (w *Watch) cmdScope(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(w.rl.Stdout(), "Current scope: %s\n", w.sess.Scope())
		return
	}
	if len(args) != 3 {
		fmt.Fprintln(w.rl.Stdout(), "Usage: scope <x> <y> <z>")
		return
	}

	var coords [3]int32
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			fmt.Fprintf(w.rl.Stdout(), "Invalid coordinate %q: %v\n", arg, err)
			return
		}
		coords[i] = int32(v)
	}

	next := world.Coords{X: coords[0], Y: coords[1], Z: coords[2]}
	w.sess.SetScope(next)
	fmt.Fprintf(w.rl.Stdout(), "Moved to %s (shell %d), caches resubscribing...\n",
		next, next.ShellLevel())
}

// cmdCounts shows cache sizes.
func (w *Watch) cmdCounts() {
	counts := w.sess.Counts()
	fmt.Fprintln(w.rl.Stdout(), "\nCache sizes:")
	for _, fam := range entity.Families() {
		fmt.Fprintf(w.rl.Stdout(), "  %-13s %d\n", fam.String()+":", counts[fam])
	}
	fmt.Fprintln(w.rl.Stdout())
}

// cmdList dumps the cached rows of one family.
func (w *Watch) cmdList(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(w.rl.Stdout(), "Usage: list <players|orbs|puddles|circuits>")
		return
	}

	out := w.rl.Stdout()
	switch strings.ToLower(args[0]) {
	case "players", "p":
		for _, p := range w.sess.Players().Snapshot() {
			fmt.Fprintf(out, "  #%d %q pos=(%.1f, %.1f, %.1f)\n",
				p.PlayerID, p.Name, p.Position.X, p.Position.Y, p.Position.Z)
		}
	case "orbs", "o":
		for _, o := range w.sess.Orbs().Snapshot() {
			fmt.Fprintf(out, "  #%d %s x%d pos=(%.1f, %.1f, %.1f)\n",
				o.OrbID, o.Signature.Band(), o.QuantumCount,
				o.Position.X, o.Position.Y, o.Position.Z)
		}
	case "puddles", "pd":
		for _, p := range w.sess.Puddles().Snapshot() {
			fmt.Fprintf(out, "  #%d %s x%d pos=(%.1f, %.1f, %.1f)\n",
				p.PuddleID, p.Signature.Band(), p.QuantumCount,
				p.Position.X, p.Position.Y, p.Position.Z)
		}
	case "circuits", "c":
		for _, c := range w.sess.Circuits().Snapshot() {
			fmt.Fprintf(out, "  #%d qubits=%d interval=%dms orbs/emission=%d\n",
				c.CircuitID, c.QubitCount, c.EmissionIntervalMs, c.OrbsPerEmission)
		}
	default:
		fmt.Fprintf(out, "Unknown family: %s\n", args[0])
		return
	}
}

// cmdWatch tails mirror events for every family.
func (w *Watch) cmdWatch(_ []string) {
	if len(w.tails) > 0 {
		fmt.Fprintln(w.rl.Stdout(), "Already watching (use 'unwatch' to stop)")
		return
	}

	tail(w, "player")
	tailTyped[entity.EnergyOrb](w, "orb")
	tailTyped[entity.EnergyPuddle](w, "puddle")
	tailTyped[entity.WorldCircuit](w, "circuit")

	fmt.Fprintln(w.rl.Stdout(), "Watching mirror events (use 'unwatch' to stop)")
}

// cmdUnwatch stops tailing.
func (w *Watch) cmdUnwatch() {
	for _, sub := range w.tails {
		eventbus.Unsubscribe(w.sess.Bus(), sub)
	}
	w.tails = nil
	fmt.Fprintln(w.rl.Stdout(), "Stopped watching")
}

// tail subscribes the player tail. Players get their own formatting; the
// other families go through tailTyped.
func tail(w *Watch, label string) {
	w.tails = append(w.tails,
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Created[entity.Player]) {
			w.printEvent("+ %s #%d %q", label, e.Record.PlayerID, e.Record.Name)
		}),
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Updated[entity.Player]) {
			w.printEvent("~ %s #%d %q", label, e.New.PlayerID, e.New.Name)
		}),
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Deleted[entity.Player]) {
			w.printEvent("- %s #%d %q", label, e.Record.PlayerID, e.Record.Name)
		}),
	)
}

// tailTyped subscribes Created/Updated/Deleted tails for one record type.
func tailTyped[T entity.Record](w *Watch, label string) {
	w.tails = append(w.tails,
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Created[T]) {
			w.printEvent("+ %s #%d", label, e.Record.Key())
		}),
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Updated[T]) {
			w.printEvent("~ %s #%d", label, e.New.Key())
		}),
		eventbus.Subscribe(w.sess.Bus(), func(e mirror.Deleted[T]) {
			w.printEvent("- %s #%d", label, e.Record.Key())
		}),
	)
}

// printEvent writes one tailed event above the prompt.
func (w *Watch) printEvent(format string, args ...any) {
	fmt.Fprintf(w.rl.Stdout(), "\n[%s] %s\n",
		time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	w.rl.Refresh()
}
