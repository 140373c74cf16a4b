package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrOpen is returned when the circuit rejects a call without attempting it.
var ErrOpen = errors.New("circuit breaker open")

// State is the circuit breaker state.
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
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards an upstream host. It opens after consecutive
// failures, rejects calls for a cooldown period, then admits probe calls
// in half-open state until enough succeed to close again.
type CircuitBreaker struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	state       State
	failures    int
	probeWins   int
	openedAt    time.Time
	maxFailures int
	probeQuota  int
	cooldown    time.Duration
	onChange    func(from, to State)
	isFailure   func(error) bool
}

// Config holds circuit breaker parameters.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
	OnStateChange    func(from, to State)
	// IsFailure classifies errors for the state machine. Errors it
	// rejects still return to the caller but count as successes, so
	// content-level failures cannot open the circuit. Defaults to any
	// non-nil error.
	IsFailure func(error) bool
}

// New creates a CircuitBreaker with the given config.
func New(cfg Config) *CircuitBreaker {
	return newWithClock(cfg, clockwork.NewRealClock())
}

func newWithClock(cfg Config, clock clockwork.Clock) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		clock:       clock,
		state:       StateClosed,
		maxFailures: cfg.FailureThreshold,
		probeQuota:  cfg.SuccessThreshold,
		cooldown:    cfg.Cooldown,
		onChange:    cfg.OnStateChange,
		isFailure:   cfg.IsFailure,
	}
}

// Call runs fn when the circuit allows it. While open it returns ErrOpen
// until the cooldown elapses, then admits a probe in half-open state. The
// result of fn drives the state machine.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.clock.Since(cb.openedAt) < cb.cooldown {
		return ErrOpen
	}
	cb.transition(StateHalfOpen)
	cb.probeWins = 0
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.isFailure(err) {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.openedAt = cb.clock.Now()
			cb.failures = 0
			cb.transition(StateOpen)
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.probeWins++
		if cb.probeWins >= cb.probeQuota {
			cb.transition(StateClosed)
		}
	}
}

// transition flips state and fires the change hook. Caller holds mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onChange != nil {
		cb.onChange(from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
