package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// Dispatcher runs fire-and-forget side effects on a bounded ants pool.
// Tasks are detached from the caller's cancellation and get their own timeout.
type Dispatcher struct {
	pool    *ants.Pool
	timeout time.Duration
	logger  *logging.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(size int, timeout time.Duration, logger *logging.Logger) (*Dispatcher, error) {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create dispatcher pool: %w", err)
	}

	return &Dispatcher{
		pool:    pool,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Go schedules fn. It never blocks; when the pool is saturated the task is
// dropped and the drop is logged.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()

		runCtx, cancel := context.WithTimeout(taskCtx, d.timeout)
		defer cancel()

		if err := fn(runCtx); err != nil {
			d.logger.WarnContext(runCtx, "async task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		d.wg.Done()
		d.logger.WarnContext(ctx, "async task dropped", "task", name, "error", err)
	}
}

// Close waits for in-flight tasks until ctx is done, then releases the pool.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	defer d.pool.Release()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
