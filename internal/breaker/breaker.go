// v1
// internal/breaker/breaker.go
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State enumerates the breaker's lifecycle.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// ErrOpen is returned on fast-fail while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	// MaxFailures is the consecutive-failure count that opens the breaker.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open before probing.
	ResetTimeout time.Duration
	// SuccessesToClose is the half-open success streak required to close.
	SuccessesToClose int
}

// Breaker is a minimal three-state circuit breaker protecting an unreliable
// downstream. It is safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config
	log  *slog.Logger

	mu        sync.Mutex
	state     State
	fails     int
	successes int
	openedAt  time.Time
}

// New builds a closed breaker. Zero or negative tunables fall back to
// 5 failures / 30s reset / 1 success.
func New(name string, cfg Config, log *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.SuccessesToClose <= 0 {
		cfg.SuccessesToClose = 1
	}
	b := &Breaker{name: name, cfg: cfg, log: log, state: Closed}
	log.Info("breaker_created",
		slog.String("name", name),
		slog.Int("maxFailures", cfg.MaxFailures),
		slog.String("resetTimeout", cfg.ResetTimeout.String()),
	)
	return b
}

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op under breaker protection. While open and inside the reset
// window it fast-fails with ErrOpen; after the window it transitions to
// half-open and lets one call probe the downstream.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if time.Since(b.openedAt) < b.cfg.ResetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.successes = 0
		b.log.Info("breaker_half_open", slog.String("name", b.name))
	case HalfOpen, Closed:
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fails++
		if b.state == HalfOpen || b.fails >= b.cfg.MaxFailures {
			b.state = Open
			b.openedAt = time.Now()
			b.log.Warn("breaker_opened",
				slog.String("name", b.name),
				slog.Int("failures", b.fails),
				slog.String("err", err.Error()),
			)
		}
		return err
	}

	b.fails = 0
	if b.state == HalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessesToClose {
			b.state = Closed
			b.log.Info("breaker_closed", slog.String("name", b.name))
		}
	}
	return nil
}
