package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/system-metaverse/system-go/pkg/log"
)

// Supervisor errors.
var (
	ErrClosed          = errors.New("connection supervisor closed")
	ErrAlreadyOnline   = errors.New("already online")
	ErrDialFuncMissing = errors.New("dial function not configured")
)

// State represents the supervised connection's lifecycle state.
type State uint8

const (
	// StateOffline indicates no connection and no retry in progress.
	StateOffline State = iota

	// StateDialing indicates an explicit connect attempt is in progress.
	StateDialing

	// StateOnline indicates a live connection.
	StateOnline

	// StateRetrying indicates the retry loop owns the connection and is
	// working to restore it.
	StateRetrying

	// StateClosed indicates the supervisor has shut down for good.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateOffline:
		return "OFFLINE"
	case StateDialing:
		return "DIALING"
	case StateOnline:
		return "ONLINE"
	case StateRetrying:
		return "RETRYING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes the underlying connection. It returns nil once the
// connection is live.
type DialFunc func(ctx context.Context) error

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// Dial establishes the connection. Required.
	Dial DialFunc

	// Backoff customizes retry timing.
	Backoff BackoffConfig

	// DialTimeout bounds each retry-loop dial attempt.
	// Defaults to 30 seconds.
	DialTimeout time.Duration

	// Logger receives state transitions and retry progress. Nil disables
	// logging.
	Logger log.Logger

	// OnOnline runs after every successful connection, including
	// reconnects. The session uses it to resubscribe all trackers.
	OnOnline func()

	// OnOffline runs after a connection is lost or dropped.
	OnOffline func()
}

// Supervisor keeps a connection alive. After a connection loss it retries
// with jittered exponential backoff until the connection is restored or the
// supervisor is closed. Retries can be disabled for tools that want a
// single-shot connection.
type Supervisor struct {
	mu sync.RWMutex

	state   State
	retry   bool
	dial    DialFunc
	timeout time.Duration
	backoff *Backoff
	logger  log.Logger

	onOnline  func()
	onOffline func()

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retryCh chan struct{}
}

// NewSupervisor creates a supervisor. Call Connect to go online; the retry
// loop starts on first use.
func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		state:     StateOffline,
		retry:     true,
		dial:      cfg.Dial,
		timeout:   cfg.DialTimeout,
		backoff:   NewBackoff(cfg.Backoff),
		logger:    log.OrNoop(cfg.Logger),
		onOnline:  cfg.OnOnline,
		onOffline: cfg.OnOffline,
		ctx:       ctx,
		cancel:    cancel,
		retryCh:   make(chan struct{}, 1),
	}

	s.wg.Add(1)
	go s.retryLoop()

	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Online reports whether the connection is currently live.
func (s *Supervisor) Online() bool {
	return s.State() == StateOnline
}

// SetRetry enables or disables automatic reconnection.
func (s *Supervisor) SetRetry(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retry = enabled
}

// Attempts returns the number of retries since the last successful
// connection.
func (s *Supervisor) Attempts() int {
	return s.backoff.Attempts()
}

// Connect dials once on the caller's goroutine. On success the supervisor
// goes online and OnOnline fires; on failure it returns to OFFLINE and the
// error is returned without scheduling a retry.
func (s *Supervisor) Connect(ctx context.Context) error {
	if s.dial == nil {
		return ErrDialFuncMissing
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateOnline:
		s.mu.Unlock()
		return ErrAlreadyOnline
	}
	s.transition(StateDialing)
	s.mu.Unlock()

	if err := s.dial(ctx); err != nil {
		s.mu.Lock()
		s.transition(StateOffline)
		s.mu.Unlock()
		return fmt.Errorf("dial: %w", err)
	}

	s.goOnline()
	return nil
}

// ConnectionLost reports a dropped connection. With retries enabled the
// supervisor moves to RETRYING and works to restore the connection;
// otherwise it goes OFFLINE. Safe to call from the transport's disconnect
// callback.
func (s *Supervisor) ConnectionLost() {
	s.mu.Lock()
	if s.state != StateOnline {
		s.mu.Unlock()
		return
	}

	retry := s.retry
	if retry {
		s.transition(StateRetrying)
	} else {
		s.transition(StateOffline)
	}
	s.mu.Unlock()

	if s.onOffline != nil {
		s.onOffline()
	}
	if retry {
		s.scheduleRetry()
	}
}

// Close shuts the supervisor down. Idempotent. The retry loop stops and no
// further state transitions occur.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.transition(StateClosed)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// transition logs and applies a state change. Caller holds s.mu.
func (s *Supervisor) transition(next State) {
	s.logger.Log(log.NewStateChange(log.CategoryConnection, "",
		s.state.String(), next.String()))
	s.state = next
}

// goOnline records a successful dial.
func (s *Supervisor) goOnline() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.transition(StateOnline)
	s.backoff.Reset()
	s.mu.Unlock()

	if s.onOnline != nil {
		s.onOnline()
	}
}

func (s *Supervisor) scheduleRetry() {
	select {
	case s.retryCh <- struct{}{}:
	default:
		// retry already pending
	}
}

func (s *Supervisor) retryLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.retryCh:
			s.restore()
		}
	}
}

// restore dials repeatedly until the connection is back or the supervisor
// closes.
func (s *Supervisor) restore() {
	for {
		if st := s.State(); st != StateRetrying {
			return
		}

		delay := s.backoff.Next()
		s.logger.Log(log.NewMessage(log.CategoryConnection,
			fmt.Sprintf("retry %d in %s", s.backoff.Attempts(), delay)))

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		if st := s.State(); st != StateRetrying {
			return
		}

		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		err := s.dial(ctx)
		cancel()

		if err == nil {
			s.goOnline()
			return
		}
		s.logger.Log(log.NewError("", fmt.Errorf("retry dial: %w", err)))
	}
}
