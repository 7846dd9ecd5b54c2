package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State of a breaker. Closed passes calls through, Open fails them fast,
// HalfOpen lets a few probes through to test recovery.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// Breaker fails calls fast once the wrapped operation has failed
// maxFailures times in a row. After cooldown it admits up to
// halfOpenProbes calls; if enough succeed the breaker closes again, a
// single failure re-opens it.
type Breaker struct {
	name           string
	maxFailures    int
	cooldown       time.Duration
	halfOpenProbes int
	logger         *logrus.Logger

	mu        sync.Mutex
	state     State
	failures  int
	probes    int
	successes int
	openedAt  time.Time
}

// New creates a closed breaker. A non-positive maxFailures or cooldown
// falls back to 5 failures and a 30 second cooldown.
func New(name string, maxFailures int, cooldown time.Duration, logger *logrus.Logger) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		name:           name,
		maxFailures:    maxFailures,
		cooldown:       cooldown,
		halfOpenProbes: 3,
		logger:         logger,
	}
}

// OpenError is returned instead of calling the wrapped operation while
// the breaker refuses traffic.
type OpenError struct {
	Name string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// IsOpenError reports whether err is a breaker fast-failure.
func IsOpenError(err error) bool {
	_, ok := err.(*OpenError)
	return ok
}

// Do runs fn unless the breaker is refusing traffic, and feeds the
// outcome back into the breaker state.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.admit() {
		return &OpenError{Name: b.name}
	}

	if err := fn(ctx); err != nil {
		b.recordFailure()
		return err
	}

	b.recordSuccess()
	return nil
}

// State returns the current state, promoting Open to HalfOpen when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeHalfOpen()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probes < b.halfOpenProbes {
			b.probes++
			return true
		}
		return false
	default:
		return false
	}
}

// maybeHalfOpen transitions Open to HalfOpen once the cooldown has
// elapsed. Callers must hold b.mu.
func (b *Breaker) maybeHalfOpen() {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
		b.probes = 0
		b.successes = 0
		b.logger.WithField("circuit_breaker", b.name).Info("Circuit breaker half-open, probing the remote")
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateHalfOpen {
		b.failures = 0
		return
	}

	b.successes++
	if b.successes >= b.halfOpenProbes {
		b.state = StateClosed
		b.failures = 0
		b.logger.WithField("circuit_breaker", b.name).Info("Circuit breaker closed, remote recovered")
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = time.Now()
		b.logger.WithFields(logrus.Fields{
			"circuit_breaker": b.name,
			"failures":        b.failures,
		}).Warn("Circuit breaker opened")
	}
}
