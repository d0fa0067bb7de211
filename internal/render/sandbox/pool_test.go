package sandbox

import (
	"context"
	"testing"
	"time"
)

func TestPoolBuildsRuntimesOnDemand(t *testing.T) {
	pool := NewPool(DefaultConfig())
	defer pool.Close()

	if stats := pool.Stats(); stats.Created != 0 {
		t.Fatalf("Fresh pool created %d runtimes, want 0", stats.Created)
	}

	result, err := pool.Execute(context.Background(), "1 + 1", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Value != int64(2) {
		t.Errorf("Execute() value = %v, want 2", result.Value)
	}

	stats := pool.Stats()
	if stats.Created != 1 {
		t.Errorf("Created = %d after one execution, want 1", stats.Created)
	}
	if stats.Idle != 1 || stats.InUse != 0 {
		t.Errorf("Idle = %d, InUse = %d after release, want 1, 0", stats.Idle, stats.InUse)
	}
}

func TestPoolReusesReleasedRuntime(t *testing.T) {
	config := DefaultConfig()
	config.PoolSize = 1
	pool := NewPool(config)
	defer pool.Close()

	for i := 0; i < 3; i++ {
		if _, err := pool.Execute(context.Background(), "1", nil); err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
	}
	if stats := pool.Stats(); stats.Created != 1 {
		t.Errorf("Created = %d after serial executions, want 1", stats.Created)
	}
}

func TestPoolAcquireTimeout(t *testing.T) {
	config := DefaultConfig()
	config.PoolSize = 1
	config.AcquireTimeout = 20 * time.Millisecond
	pool := NewPool(config)
	defer pool.Close()

	runtime, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := pool.Acquire(context.Background()); err != ErrTimeout {
		t.Errorf("Second Acquire() error = %v, want ErrTimeout", err)
	}

	if err := pool.Release(runtime); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	runtime, err = pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	pool.Release(runtime)
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	config := DefaultConfig()
	config.PoolSize = 1
	pool := NewPool(config)
	defer pool.Close()

	runtime, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release(runtime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPoolClose(t *testing.T) {
	pool := NewPool(DefaultConfig())
	if _, err := pool.Execute(context.Background(), "1", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := pool.Acquire(context.Background()); err != ErrPoolClosed {
		t.Errorf("Acquire() after close error = %v, want ErrPoolClosed", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}
