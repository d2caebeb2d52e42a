// Package resilience guards outbound dependencies (token introspection,
// notification publishing) with a consecutive-failure circuit breaker.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/riskibarqy/matchday/internal/platform/logging"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	// HalfOpenMaxReq is both the probe concurrency and the number of probe
	// successes needed to close again.
	HalfOpenMaxReq int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	def := DefaultCircuitBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = def.HalfOpenMaxReq
	}
	return c
}

// CircuitBreaker trips after FailureThreshold consecutive counted failures,
// rejects calls for OpenTimeout, then admits a limited number of probes.
// A disabled breaker runs every call.
type CircuitBreaker struct {
	name     string
	cfg      CircuitBreakerConfig
	onChange func(name string, from, to State)
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	probes    int
	successes int
	openedAt  time.Time
	// generation changes on every transition so results of calls admitted
	// under an older state are ignored.
	generation uint64
}

type Option func(*CircuitBreaker)

// WithStateChange registers a hook run (under the breaker lock) on every
// transition. It must not call back into the breaker.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *CircuitBreaker) { b.onChange = fn }
}

// WithLogger logs every transition; opening is a warning.
func WithLogger(logger *logging.Logger) Option {
	if logger == nil {
		logger = logging.Default()
	}
	return WithStateChange(func(name string, from, to State) {
		if to == StateOpen {
			logger.Warn("circuit breaker opened", "breaker", name, "from", string(from))
			return
		}
		logger.Info("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
	})
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, opts ...Option) *CircuitBreaker {
	b := &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *CircuitBreaker) Enabled() bool { return b.cfg.Enabled }

func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Do runs fn when admitted. Only errors for which countsAsFailure reports
// true (or every error when it is nil) move the breaker toward open.
func (b *CircuitBreaker) Do(fn func() error, countsAsFailure func(error) bool) error {
	if !b.cfg.Enabled {
		return fn()
	}

	gen, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn()
	failed := callErr != nil && (countsAsFailure == nil || countsAsFailure(callErr))
	b.settle(gen, failed)
	return callErr
}

func (b *CircuitBreaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	switch b.state {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxReq {
			return 0, ErrCircuitOpen
		}
		b.probes++
	}
	return b.generation, nil
}

func (b *CircuitBreaker) settle(gen uint64, failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	if gen != b.generation {
		return
	}

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if failed {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq {
			b.transition(StateClosed)
		}
	}
}

// refresh moves an expired open breaker to half-open. Caller holds mu.
func (b *CircuitBreaker) refresh() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.transition(StateHalfOpen)
	}
}

func (b *CircuitBreaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.generation++
	b.failures, b.probes, b.successes = 0, 0, 0
	if to == StateOpen {
		b.openedAt = b.now()
	}
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
