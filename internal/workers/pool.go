// Package workers runs batches of independent tasks on a bounded goroutine pool.
package workers

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"phototidy/internal/tidy"
)

// ErrTaskPanicked is returned by Run when at least one task panicked.
var ErrTaskPanicked = errors.New("worker task panicked")

// Pool implements tidy.TaskRunner on top of an ants pool.
type Pool struct {
	pool   *ants.Pool
	logger tidy.Logger
}

// New creates a pool of size workers; size <= 0 means one worker per CPU.
func New(size int, logger tidy.Logger) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = tidy.NewNopLogger()
	}

	antsPool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(p any) {
			logger.Error("worker panic", "error", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	return &Pool{pool: antsPool, logger: logger}, nil
}

// Run calls task(i) for every i in [0, n) and blocks until all calls returned.
// Submission blocks while every worker is busy. A panicking task is logged and
// counts as finished; Run then returns ErrTaskPanicked for the lowest such index.
func (p *Pool) Run(n int, task func(i int)) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		panicked = -1
		reason   any
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker panic", "task", i, "error", r)
					mu.Lock()
					if panicked < 0 || i < panicked {
						panicked, reason = i, r
					}
					mu.Unlock()
				}
			}()
			task(i)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submitting task %d: %w", i, err)
		}
	}
	wg.Wait()
	if panicked >= 0 {
		return fmt.Errorf("%w: task %d: %v", ErrTaskPanicked, panicked, reason)
	}
	return nil
}

// Size returns the worker capacity.
func (p *Pool) Size() int {
	return p.pool.Cap()
}

// Release stops the pool. Run must not be called afterwards.
func (p *Pool) Release() {
	p.pool.Release()
}

// Compile-time check that Pool implements tidy.TaskRunner interface
var _ tidy.TaskRunner = (*Pool)(nil)
