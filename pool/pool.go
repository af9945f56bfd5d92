// Package pool implements the fixed-size worker pool underneath the sampler's
// fork-join loop: tasks are enqueued into a FIFO queue, executed by at most a
// configured number of workers, and awaited as a group through JoinAll.
//
// When no concurrency is available the pool runs in a degenerate inline mode
// in which Enqueue executes the task on the calling goroutine. The same program
// logic runs either way; only the wall-clock schedule differs.
package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// releaseTimeout bounds how long Close waits for idle workers to exit. By the
// time it applies, JoinAll has already drained the queue.
const releaseTimeout = 10 * time.Second

// Option customizes pool construction.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	concurrency int
	hardware    int
	forced      int
	hasForced   bool
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConcurrency sets the externally requested concurrency cap, typically
// taken from the environment. Zero means "no cap given, use the hardware"; one
// forces the degenerate inline mode.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithWorkers bypasses concurrency detection and forces an exact worker
// count; zero forces the inline mode. Useful for reproducibility experiments
// that compare sequential and parallel schedules of the same run.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.forced = n
		o.hasForced = true
	}
}

// withHardware overrides the detected core count; tests use it through the
// export hooks.
func withHardware(n int) Option {
	return func(o *options) { o.hardware = n }
}

// Workers computes the effective worker count from the requested cap, the
// available hardware concurrency and the caller's useful maximum (typically
// the number of chains, since finer-grained parallelism buys nothing beyond
// that). One logical core is reserved for the submitting goroutine. A result
// of zero selects the inline mode.
func Workers(cap, hardware, maxWorkers int) int {
	avail := hardware
	if cap > 0 && cap < hardware {
		avail = cap
	}
	if avail <= 1 {
		return 0
	}
	if avail-1 < maxWorkers {
		return avail - 1
	}
	return maxWorkers
}

// Pool executes an unbounded sequence of independent tasks with bounded
// concurrency. The calling goroutine is purely a submitter; it never steals
// work, except in the inline mode where it is the only executor.
type Pool struct {
	logger  *zap.Logger
	workers *ants.Pool // nil in inline mode

	mu    sync.Mutex
	queue []func()

	// outstanding counts tasks enqueued but not yet finished; JoinAll's
	// barrier is "outstanding == 0".
	outstanding atomic.Int64

	// seq hands out per-task sequence numbers, used only for diagnostics.
	seq atomic.Uint64

	closed atomic.Bool
}

// New builds a pool sized by Workers from maxWorkers and the options. A
// failure to set up the worker goroutines is returned as an error: the pool
// must fail fast rather than silently run with fewer workers than reported.
func New(maxWorkers int, opts ...Option) (*Pool, error) {
	o := options{
		logger:   zap.NewNop(),
		hardware: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{logger: o.logger}

	n := Workers(o.concurrency, o.hardware, maxWorkers)
	if o.hasForced {
		n = o.forced
	}
	if n == 0 {
		p.logger.Info("running sequentially without a worker pool")
		return p, nil
	}

	workers, err := ants.NewPool(n,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			// A task that panics has produced a partial, garbage evaluation.
			// Continuing would silently corrupt every downstream statistic.
			p.logger.Fatal("task panicked", zap.Any("panic", v))
		}))
	if err != nil {
		return nil, fmt.Errorf("starting worker pool: %w", err)
	}
	p.workers = workers
	p.logger.Info("starting worker pool", zap.Int("workers", n))
	return p, nil
}

// Inline reports whether the pool runs tasks on the caller's goroutine.
func (p *Pool) Inline() bool {
	return p.workers == nil
}

// Enqueue appends a task to the tail of the queue and nudges an idle worker.
// In inline mode the task is executed synchronously on the caller instead.
// Apart from the brief critical section protecting the queue, Enqueue does not
// block.
func (p *Pool) Enqueue(task func()) {
	id := p.seq.Add(1)
	if p.workers == nil {
		task()
		return
	}

	p.outstanding.Add(1)
	p.mu.Lock()
	p.queue = append(p.queue, task)
	p.mu.Unlock()
	p.logger.Debug("task enqueued", zap.Uint64("task", id))

	// ErrPoolOverload just means every worker is busy; one of them will drain
	// the queue when it finishes its current task, or JoinAll will re-nudge.
	if err := p.workers.Submit(p.drain); err != nil && err != ants.ErrPoolOverload {
		p.logger.Fatal("submitting to worker pool", zap.Error(err))
	}
}

// drain runs queued tasks until the queue is empty, then returns the worker to
// the idle set.
func (p *Pool) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()
		p.outstanding.Add(-1)
	}
}

// JoinAll blocks until the queue is empty and no worker is mid-execution of a
// dequeued task. Tasks finish at irregular, short intervals, so this is a
// polling wait that yields the processor between checks; the small poll latency
// is an accepted trade for simplicity.
func (p *Pool) JoinAll() {
	if p.workers == nil {
		return
	}
	for p.outstanding.Load() > 0 {
		p.mu.Lock()
		queued := len(p.queue)
		p.mu.Unlock()
		if queued > 0 {
			// Heal a lost wakeup: a worker may have gone idle between our
			// enqueue and its final empty-queue check.
			if err := p.workers.Submit(p.drain); err != nil && err != ants.ErrPoolOverload {
				p.logger.Fatal("submitting to worker pool", zap.Error(err))
			}
		}
		runtime.Gosched()
	}
}

// Close performs JoinAll and then stops the workers, blocking until every
// worker goroutine has terminated. Closing twice is a no-op.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.JoinAll()
	if p.workers != nil {
		if err := p.workers.ReleaseTimeout(releaseTimeout); err != nil {
			return fmt.Errorf("stopping worker pool: %w", err)
		}
	}
	return nil
}
