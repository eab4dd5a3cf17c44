package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker's position: closed lets quote traffic flow,
// open blocks it, half-open lets a few probes through.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit bounds concurrent probes, and is also the number of
	// consecutive probe successes needed to close again.
	HalfOpenLimit int
}

// CircuitBreaker keeps the client from hammering the quotes backend while
// it is down. Closed opens after MaxFailures consecutive failures; open
// goes half-open once Timeout passes; half-open closes after HalfOpenLimit
// successes and reopens on any failure.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	lastFailure      time.Time
	cfg              CircuitBreakerConfig

	onStateChange func(from, to State)

	// now is swappable so tests can drive the open-state timeout.
	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		state: StateClosed,
		cfg:   cfg,
		now:   time.Now,
	}
}

// OnStateChange registers a transition callback, for logging or metrics.
// The callback runs on its own goroutine.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Allow reports whether a request may go out. An open circuit whose
// timeout has elapsed flips to half-open here and admits the caller as
// the first probe; half-open admits at most HalfOpenLimit in flight.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.cfg.Timeout {
			cb.transitionTo(StateHalfOpen)
			cb.halfOpenRequests = 1
			return true
		}
		return false

	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.cfg.HalfOpenLimit {
			return false
		}
		cb.halfOpenRequests++
		return true

	default:
		return false
	}
}

// RecordSuccess clears the failure streak, or counts a probe success in
// half-open, closing the circuit at HalfOpenLimit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0

	case StateHalfOpen:
		cb.halfOpenRequests--
		cb.successes++
		if cb.successes >= cb.cfg.HalfOpenLimit {
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordFailure counts toward the trip threshold in closed state; in
// half-open a single failure reopens the circuit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		cb.halfOpenRequests--
		cb.transitionTo(StateOpen)
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// transitionTo resets the streak counters and fires the callback off the
// lock. Callers hold mu.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0

	if cb.onStateChange != nil {
		go cb.onStateChange(oldState, newState)
	}
}
