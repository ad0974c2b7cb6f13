package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned without calling through while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// MaxFailures consecutive errors open the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls probes must all succeed to close the circuit.
	HalfOpenMaxCalls int                               `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`
	OnStateChange    func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// DefaultCircuitBreakerConfig opens after 5 failures and probes after 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker fails fast once a backend has failed MaxFailures times in
// a row. After Timeout it admits HalfOpenMaxCalls probes: any probe failure
// reopens the circuit, all of them succeeding closes it.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	passed   int
}

// NewCircuitBreaker creates a closed breaker. Unset limits take the defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute calls fn unless the circuit is open and records its outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(err == nil)
	return err
}

// State reports the current state, moving an expired open circuit to half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()
	return cb.state
}

// Failures is the number of consecutive failures seen while closed.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.move(StateClosed)
	cb.failures = 0
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expire()
	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenMaxCalls {
			cb.probes++
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) settle(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateClosed:
		if ok {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			cb.trip()
		}
	case StateHalfOpen:
		if !ok {
			cb.trip()
			return
		}
		cb.passed++
		if cb.passed >= cb.cfg.HalfOpenMaxCalls {
			cb.move(StateClosed)
		}
	case StateOpen:
		// Admitted before the trip; keep the circuit open a full Timeout.
		if !ok {
			cb.openedAt = cb.now()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.move(StateOpen)
}

func (cb *CircuitBreaker) expire() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
		cb.move(StateHalfOpen)
	}
}

// move must be called with mu held.
func (cb *CircuitBreaker) move(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.probes, cb.passed = 0, 0
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
