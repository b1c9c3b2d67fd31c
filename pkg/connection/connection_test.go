package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("Growth", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
			Factor:       2.0,
			Jitter:       0,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond, // stays at max
		}

		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("delay %d = %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			InitialDelay: 1 * time.Second,
			MaxDelay:     1 * time.Second,
			Jitter:       0.2,
		})

		varied := false
		var first time.Duration
		for i := 0; i < 10; i++ {
			d := b.Next()
			if d < 1*time.Second || d > 1200*time.Millisecond+time.Millisecond {
				t.Errorf("sample %d = %v, want within [1s, 1.2s]", i, d)
			}
			if i == 0 {
				first = d
			} else if d != first {
				varied = true
			}
		}
		if !varied {
			t.Error("all jittered samples identical")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			Jitter:       0,
		})

		for i := 0; i < 4; i++ {
			b.Next()
		}
		if b.Attempts() != 4 {
			t.Errorf("Attempts() = %d, want 4", b.Attempts())
		}

		b.Reset()

		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
		if got := b.Next(); got != 100*time.Millisecond {
			t.Errorf("Next() = %v after reset, want 100ms", got)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{})
		b.jitter = 0 // deterministic

		if got := b.Next(); got != DefaultInitialDelay {
			t.Errorf("first delay = %v, want %v", got, DefaultInitialDelay)
		}
	})
}

func TestSupervisorConnect(t *testing.T) {
	t.Run("InitialState", func(t *testing.T) {
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error { return nil },
		})
		defer s.Close()

		if s.State() != StateOffline {
			t.Errorf("State() = %v, want OFFLINE", s.State())
		}
		if s.Online() {
			t.Error("Online() = true before Connect")
		}
	})

	t.Run("Success", func(t *testing.T) {
		dialed := false
		onlineFired := false
		s := NewSupervisor(SupervisorConfig{
			Dial:     func(ctx context.Context) error { dialed = true; return nil },
			OnOnline: func() { onlineFired = true },
		})
		defer s.Close()

		if err := s.Connect(context.Background()); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if !dialed {
			t.Error("dial function not called")
		}
		if !onlineFired {
			t.Error("OnOnline not fired")
		}
		if !s.Online() {
			t.Errorf("State() = %v, want ONLINE", s.State())
		}
	})

	t.Run("Failure", func(t *testing.T) {
		dialErr := errors.New("refused")
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error { return dialErr },
		})
		defer s.Close()

		err := s.Connect(context.Background())
		if !errors.Is(err, dialErr) {
			t.Errorf("Connect() error = %v, want wrapped %v", err, dialErr)
		}
		if s.State() != StateOffline {
			t.Errorf("State() = %v, want OFFLINE", s.State())
		}
	})

	t.Run("AlreadyOnline", func(t *testing.T) {
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error { return nil },
		})
		defer s.Close()

		s.Connect(context.Background())
		if err := s.Connect(context.Background()); err != ErrAlreadyOnline {
			t.Errorf("second Connect() error = %v, want ErrAlreadyOnline", err)
		}
	})

	t.Run("MissingDial", func(t *testing.T) {
		s := NewSupervisor(SupervisorConfig{})
		defer s.Close()

		if err := s.Connect(context.Background()); err != ErrDialFuncMissing {
			t.Errorf("Connect() error = %v, want ErrDialFuncMissing", err)
		}
	})

	t.Run("AfterClose", func(t *testing.T) {
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error { return nil },
		})
		s.Close()

		if err := s.Connect(context.Background()); err != ErrClosed {
			t.Errorf("Connect() after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestSupervisorRetry(t *testing.T) {
	t.Run("RestoresAfterLoss", func(t *testing.T) {
		var dials atomic.Int32
		var onlineCount atomic.Int32
		offlineFired := make(chan struct{}, 1)

		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error {
				dials.Add(1)
				return nil
			},
			Backoff: BackoffConfig{
				InitialDelay: 20 * time.Millisecond,
				MaxDelay:     50 * time.Millisecond,
				Jitter:       0,
			},
			OnOnline:  func() { onlineCount.Add(1) },
			OnOffline: func() { offlineFired <- struct{}{} },
		})
		defer s.Close()

		if err := s.Connect(context.Background()); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}

		s.ConnectionLost()
		<-offlineFired

		deadline := time.After(1 * time.Second)
		for s.State() != StateOnline {
			select {
			case <-deadline:
				t.Fatalf("State() = %v, never returned to ONLINE", s.State())
			case <-time.After(10 * time.Millisecond):
			}
		}

		if dials.Load() < 2 {
			t.Errorf("dial called %d times, want at least 2", dials.Load())
		}
		if onlineCount.Load() != 2 {
			t.Errorf("OnOnline fired %d times, want 2", onlineCount.Load())
		}
	})

	t.Run("KeepsRetryingThroughFailures", func(t *testing.T) {
		var dials atomic.Int32
		var mu sync.Mutex
		var stamps []time.Time

		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error {
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
				if dials.Add(1) < 3 {
					return errors.New("still down")
				}
				return nil
			},
			Backoff: BackoffConfig{
				InitialDelay: 20 * time.Millisecond,
				MaxDelay:     100 * time.Millisecond,
				Jitter:       0,
			},
		})
		defer s.Close()

		s.Connect(context.Background()) // first dial fails, stays OFFLINE
		if s.State() != StateOffline {
			t.Fatalf("State() = %v after failed Connect, want OFFLINE", s.State())
		}

		// Force the retry path the way a live disconnect would.
		s.mu.Lock()
		s.state = StateRetrying
		s.mu.Unlock()
		s.scheduleRetry()

		deadline := time.After(2 * time.Second)
		for s.State() != StateOnline {
			select {
			case <-deadline:
				t.Fatalf("State() = %v, never reached ONLINE", s.State())
			case <-time.After(10 * time.Millisecond):
			}
		}

		if dials.Load() < 3 {
			t.Errorf("dial called %d times, want at least 3", dials.Load())
		}
	})

	t.Run("RetryDisabled", func(t *testing.T) {
		var dials atomic.Int32
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error {
				dials.Add(1)
				return nil
			},
			Backoff: BackoffConfig{InitialDelay: 10 * time.Millisecond, Jitter: 0},
		})
		s.SetRetry(false)
		defer s.Close()

		s.Connect(context.Background())
		s.ConnectionLost()

		time.Sleep(100 * time.Millisecond)

		if s.State() != StateOffline {
			t.Errorf("State() = %v, want OFFLINE with retries disabled", s.State())
		}
		if dials.Load() != 1 {
			t.Errorf("dial called %d times, want 1", dials.Load())
		}
	})

	t.Run("LossWhileOfflineIgnored", func(t *testing.T) {
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error { return nil },
		})
		defer s.Close()

		s.ConnectionLost()
		if s.State() != StateOffline {
			t.Errorf("State() = %v, want OFFLINE", s.State())
		}
	})

	t.Run("CloseStopsRetry", func(t *testing.T) {
		var dials atomic.Int32
		s := NewSupervisor(SupervisorConfig{
			Dial: func(ctx context.Context) error {
				dials.Add(1)
				if dials.Load() == 1 {
					return nil
				}
				return errors.New("still down")
			},
			Backoff: BackoffConfig{InitialDelay: 20 * time.Millisecond, Jitter: 0},
		})

		s.Connect(context.Background())
		s.ConnectionLost()
		s.Close()

		settled := dials.Load()
		time.Sleep(150 * time.Millisecond)

		if got := dials.Load(); got > settled+1 {
			t.Errorf("dials kept accumulating after Close: %d -> %d", settled, got)
		}
		if s.State() != StateClosed {
			t.Errorf("State() = %v, want CLOSED", s.State())
		}
	})
}

func TestSupervisorCloseIdempotent(t *testing.T) {
	s := NewSupervisor(SupervisorConfig{
		Dial: func(ctx context.Context) error { return nil },
	})

	s.Close()
	s.Close()

	if s.State() != StateClosed {
		t.Errorf("State() = %v, want CLOSED", s.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateOffline, "OFFLINE"},
		{StateDialing, "DIALING"},
		{StateOnline, "ONLINE"},
		{StateRetrying, "RETRYING"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
