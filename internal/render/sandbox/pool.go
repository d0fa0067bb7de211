package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Pool hands out goja runtimes for preview execution. Dry runs are
// short lived and bursty, so runtimes are built lazily on first
// demand and recycled afterwards instead of prebuilt at startup:
// a server that never previews pays for zero VMs.
type Pool struct {
	config Config
	idle   chan *Runtime

	mu      sync.Mutex
	created int
	closed  bool
}

// PoolStats is a point-in-time occupancy snapshot.
type PoolStats struct {
	Size    int  `json:"size"`
	Created int  `json:"created"`
	Idle    int  `json:"idle"`
	InUse   int  `json:"inUse"`
	Closed  bool `json:"closed"`
}

// NewPool creates a runtime pool bounded by config.PoolSize. Runtimes
// are not constructed until the first Acquire needs one.
func NewPool(config Config) *Pool {
	if config.PoolSize <= 0 {
		config.PoolSize = 4
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 5 * time.Second
	}
	return &Pool{
		config: config,
		idle:   make(chan *Runtime, config.PoolSize),
	}
}

// Acquire returns an idle runtime, builds a fresh one while the pool
// is below its bound, or waits up to the configured acquire deadline
// for a release.
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	select {
	case runtime := <-p.idle:
		p.mu.Unlock()
		return runtime, nil
	default:
	}

	if p.created < p.config.PoolSize {
		p.created++
		p.mu.Unlock()
		runtime, err := NewRuntime(p.config)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		return runtime, nil
	}
	p.mu.Unlock()

	deadline := time.NewTimer(p.config.AcquireTimeout)
	defer deadline.Stop()

	select {
	case runtime, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return runtime, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline.C:
		return nil, ErrTimeout
	}
}

// Release resets a runtime and parks it for reuse. A runtime that
// fails to reset is dropped; the next Acquire builds its replacement.
func (p *Pool) Release(runtime *Runtime) error {
	if err := runtime.Reset(); err != nil {
		runtime.Close()
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.created--
		return runtime.Close()
	}
	// created never exceeds PoolSize, so the buffered send cannot block.
	p.idle <- runtime
	return nil
}

// Execute runs script on a pooled runtime.
func (p *Pool) Execute(ctx context.Context, script string, dom *DOM) (*Result, error) {
	runtime, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(runtime)

	return runtime.Execute(ctx, script, dom)
}

// Close shuts the pool down and closes every parked runtime. In-use
// runtimes are closed as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	for runtime := range p.idle {
		runtime.Close()
	}
	return nil
}

// Stats reports pool occupancy.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStats{
		Size:    p.config.PoolSize,
		Created: p.created,
		Idle:    len(p.idle),
		InUse:   p.created - len(p.idle),
		Closed:  p.closed,
	}
}
