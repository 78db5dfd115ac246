// Package worker runs box-score fetches off the queue with a bounded pool.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bullpen/internal/adapters/mq/queue"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Fetcher loads a box score.
type Fetcher interface {
	BoxScore(ctx context.Context, gameID int) (*model.BoxScore, error)
}

// Sink receives every fetch outcome. Exactly one of box and err is set.
type Sink interface {
	Deliver(gameID int, box *model.BoxScore, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for fetching box scores.
type InMemoryWorker struct {
	queue   Queue
	fetcher Fetcher
	sink    Sink
	name    string

	processed  *atomic.Int64
	jobTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, fetcher Fetcher, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		fetcher:   fetcher,
		sink:      sink,
		name:      "worker",
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process fetches one box score and hands the outcome to the sink.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	fetchCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}
	box, err := w.fetcher.BoxScore(fetchCtx, job.GameID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "fetch_error")
		w.logger.Warn(ctx, "box score fetch failed",
			logger.Int("game_id", job.GameID),
			logger.Duration("queued", start.Sub(job.Enqueued)),
			logger.Error(err))
		w.sink.Deliver(job.GameID, nil, fmt.Errorf("fetch game %d: %w", job.GameID, err))
	} else {
		w.sink.Deliver(job.GameID, box, nil)
	}
	w.processed.Add(1)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed atomic.Int64
	logger    logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to twice
// the CPU count.
func NewPool(workerCount int, q Queue, fetcher Fetcher, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, fetcher, sink, workerOpts...)
		p.workers[i].processed = &p.processed
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Processed returns the number of jobs finished across all workers.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Drain closes the queue and waits until every queued job is processed.
func (p *Pool) Drain(ctx context.Context) error {
	p.closeQueue(ctx)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("drain interrupted: %w", ctx.Err())
		}
	}
	return nil
}

// Shutdown closes the queue and stops workers without draining it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeQueue(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}

func (p *Pool) closeQueue(ctx context.Context) {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
}

// Collector is a Sink that keeps every outcome in memory.
type Collector struct {
	mu       sync.Mutex
	boxes    map[int]*model.BoxScore
	failures map[int]error
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		boxes:    make(map[int]*model.BoxScore),
		failures: make(map[int]error),
	}
}

// Deliver records one outcome.
func (c *Collector) Deliver(gameID int, box *model.BoxScore, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures[gameID] = err
		return
	}
	c.boxes[gameID] = box
}

// Boxes returns a copy of the fetched box scores by game id.
func (c *Collector) Boxes() map[int]*model.BoxScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]*model.BoxScore, len(c.boxes))
	for id, b := range c.boxes {
		out[id] = b
	}
	return out
}

// Failures returns a copy of the fetch errors by game id.
func (c *Collector) Failures() map[int]error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]error, len(c.failures))
	for id, err := range c.failures {
		out[id] = err
	}
	return out
}
