// Command system-watch is an interactive inspector for the SYSTEM entity
// mirror.
//
// It connects to a hosted SYSTEM database, mirrors the entity tables of the
// current world scope and lets you inspect the local caches while they stay
// in sync.
//
// Usage:
//
//	system-watch [flags]
//
// Flags:
//
//	-config string        Configuration file path (default "system.yaml")
//	-server string        WebSocket endpoint (overrides config)
//	-realm string         Server realm (overrides config)
//	-metrics-addr string  Serve Prometheus metrics on this address
//	-verbose              Log every sync event
//
// Interactive Commands:
//
//	scope [x y z] - Show or change the world scope
//	counts        - Show cache sizes per entity family
//	list <family> - Dump the cached rows of one family
//	watch         - Tail mirror events live
//	status        - Show connection and subscription status
//	quit          - Exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/system-metaverse/system-go/cmd/system-watch/interactive"
	"github.com/system-metaverse/system-go/pkg/log"
	"github.com/system-metaverse/system-go/pkg/session"
)

var (
	configPath  string
	serverURL   string
	realm       string
	metricsAddr string
	verbose     bool
)

func init() {
	flag.StringVar(&configPath, "config", "system.yaml", "Configuration file path")
	flag.StringVar(&serverURL, "server", "", "WebSocket endpoint (overrides config)")
	flag.StringVar(&realm, "realm", "", "Server realm (overrides config)")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&verbose, "verbose", false, "Log every sync event")
	flag.Parse()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "system-watch:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := session.LoadConfig(configPath)
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if realm != "" {
		cfg.Realm = realm
	}
	if err != nil {
		// Flags may have filled the missing fields; revalidate.
		if vErr := cfg.Validate(); vErr != nil {
			return err
		}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := &swappableWriter{w: os.Stderr}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	sess, err := session.New(cfg, session.WithLogger(log.NewZerologAdapter(zl)))
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	err = sess.Start(dialCtx)
	dialCancel()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	zl.Info().Str("server", cfg.ServerURL).Stringer("scope", sess.Scope()).Msg("connected")

	if metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(metricsAddr, sess.Metrics().Handler()); err != nil {
				zl.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		zl.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}

	watch, err := interactive.New(sess)
	if err != nil {
		return err
	}
	// Route log output through readline so it does not clobber the prompt.
	out.swap(watch.Stdout())
	go watch.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info().Stringer("signal", sig).Msg("shutting down")
	case <-ctx.Done():
		// quit command
	}

	return nil
}

// swappableWriter lets log output move from stderr to the readline prompt
// writer once the interactive loop owns the terminal.
type swappableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *swappableWriter) swap(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *swappableWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
