package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a guarded sink is cooling down.
var ErrCircuitOpen = errors.New("audit sink circuit open")

// CircuitBreaker stops calling an unhealthy sink. After threshold
// consecutive failures it opens for cooldown, then lets the next call through as a trial.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
	now       func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a call may go through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return !cb.now().Before(cb.openUntil)
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.openUntil = time.Time{}
}

// RecordFailure returns true when this failure opened the circuit.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures < cb.threshold {
		return false
	}
	cb.failures = 0
	cb.openUntil = cb.now().Add(cb.cooldown)
	return true
}

// Guarded wraps a sink with a CircuitBreaker.
type Guarded struct {
	next    Publisher
	breaker *CircuitBreaker
	onDrop  func(reason string)
}

// GuardedOption configures a Guarded publisher.
type GuardedOption func(*Guarded)

// WithDropHook is called with a reason each time an event is not delivered.
func WithDropHook(fn func(reason string)) GuardedOption {
	return func(g *Guarded) {
		g.onDrop = fn
	}
}

func NewGuarded(next Publisher, breaker *CircuitBreaker, opts ...GuardedOption) *Guarded {
	g := &Guarded{next: next, breaker: breaker, onDrop: func(string) {}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guarded) Emit(ctx context.Context, event Event) error {
	if !g.breaker.Allow() {
		g.onDrop("circuit_open")
		return ErrCircuitOpen
	}
	if err := g.next.Emit(ctx, event); err != nil {
		g.breaker.RecordFailure()
		g.onDrop("emit_failed")
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}
