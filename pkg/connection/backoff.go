package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Default retry timing. The server drops all subscription state on
// disconnect, so clients reconnect eagerly at first and settle into a
// modest ceiling instead of hammering a struggling server.
const (
	// DefaultInitialDelay is the delay before the first retry.
	DefaultInitialDelay = 1 * time.Second

	// DefaultMaxDelay caps the retry delay.
	DefaultMaxDelay = 30 * time.Second

	// DefaultFactor is the growth factor between retries.
	DefaultFactor = 2.0

	// DefaultJitter is the maximum random fraction added to each delay.
	DefaultJitter = 0.2
)

// BackoffConfig customizes retry timing. Zero fields take defaults.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
	Jitter       float64
}

// Backoff produces exponentially growing, jittered retry delays.
type Backoff struct {
	mu sync.Mutex

	base     time.Duration
	initial  time.Duration
	max      time.Duration
	factor   float64
	jitter   float64
	attempts int

	rng *rand.Rand
}

// NewBackoff creates a backoff generator. Invalid or zero config fields
// fall back to the package defaults.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.Factor <= 1 {
		cfg.Factor = DefaultFactor
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		base:    cfg.InitialDelay,
		initial: cfg.InitialDelay,
		max:     cfg.MaxDelay,
		factor:  cfg.Factor,
		jitter:  cfg.Jitter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the jittered delay to wait before the upcoming attempt and
// advances the generator.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.jittered(b.base)

	b.attempts++
	grown := time.Duration(float64(b.base) * b.factor)
	if grown > b.max {
		grown = b.max
	}
	b.base = grown

	return delay
}

// Reset restores the initial delay. Call after a successful connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.base = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

func (b *Backoff) jittered(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}
