// Package worker drains the unit queue with a bounded pool of workers.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rosterpipe/internal/adapters/mq/queue"
	"github.com/okian/rosterpipe/internal/domain/model"
	"github.com/okian/rosterpipe/pkg/logger"
	"github.com/okian/rosterpipe/pkg/metrics"
)

// Unit abstracts what workers read off the queue.
type Unit = queue.Unit

// Processor drives one unit to a terminal state. Failures are recorded on
// the unit, never returned.
type Processor interface {
	Process(ctx context.Context, u *model.ProcessingUnit)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, u *model.ProcessingUnit)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, u *model.ProcessingUnit) { f(ctx, u) }

// Queue defines how workers receive units.
type Queue interface {
	Dequeue() <-chan Unit
}

// Worker processes units from a queue.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is
	// canceled.
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string
	active    *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		active:    &atomic.Int64{},
		logger:    logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	units := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-units:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.process(ctx, u)
		}
	}
}

// process runs one unit. A panic or a unit left non-terminal fails that
// unit only.
func (w *InMemoryWorker) process(ctx context.Context, u Unit) {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "unit processing panicked", logger.String("unit", u.Key.String()), logger.Any("panic", r))
			if !u.Terminal() {
				_ = u.Fail(fmt.Sprintf("internal error: %v", r))
			}
		}
		if !u.Terminal() {
			metrics.RecordWorkerError()
			_ = u.Fail("processing ended before a terminal state")
		}
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.processor.Process(ctx, u)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	wg      sync.WaitGroup
}

// NewPool creates a pool of workerCount workers; a count below one uses the
// number of CPUs.
func NewPool(workerCount int, q Queue, p Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{workers: make([]*InMemoryWorker, workerCount)}

	active := &atomic.Int64{}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, p, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.active = active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Run starts the pool and waits for the queue to drain.
func (p *Pool) Run(ctx context.Context) {
	p.Start(ctx)
	p.Wait()
}
