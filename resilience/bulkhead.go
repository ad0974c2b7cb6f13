package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	Name          string `yaml:"name" mapstructure:"name"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long to wait for a slot. Zero fails immediately,
	// a negative value waits until the context is done.
	MaxWait  time.Duration     `yaml:"max_wait" mapstructure:"max_wait"`
	OnReject func(name string) `yaml:"-" mapstructure:"-"`
}

// Bulkhead limits how many calls run against one backend at a time.
type Bulkhead struct {
	cfg   BulkheadConfig
	slots chan struct{}
}

// NewBulkhead creates a bulkhead with MaxConcurrent slots, 10 when unset.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	return &Bulkhead{cfg: cfg, slots: make(chan struct{}, cfg.MaxConcurrent)}
}

// Execute runs fn in a slot. It returns ErrBulkheadFull, ErrBulkheadTimeout
// or the context error when no slot was obtained.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		if b.cfg.OnReject != nil {
			b.cfg.OnReject(b.cfg.Name)
		}
		return err
	}
	defer func() { <-b.slots }()
	return fn()
}

// ExecuteWithResult is Execute for calls with a result.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func() (err error) {
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}
	if b.cfg.MaxWait == 0 {
		return ErrBulkheadFull
	}

	var expired <-chan time.Time // nil waits forever
	if b.cfg.MaxWait > 0 {
		t := time.NewTimer(b.cfg.MaxWait)
		defer t.Stop()
		expired = t.C
	}
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-expired:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InUse is the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.slots) }
