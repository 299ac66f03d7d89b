package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
	"github.com/lccmrx/go-context-kit/pkg/telemetry/tracer"
)

const (
	workerPoolDefaultSize              = 100
	taskQueueDefaultCapacityMultiplier = 100
	statsDefaultInterval               = 15 * time.Second
)

var ErrPoolClosed = errors.New("worker pool is closed")

type Config struct {
	PoolSize        uint32        `yaml:"pool_size" mapstructure:"pool_size"`
	QueueMultiplier uint32        `yaml:"queue_multiplier" mapstructure:"queue_multiplier"`
	StatsInterval   time.Duration `yaml:"stats_interval" mapstructure:"stats_interval"`
}

func (c Config) Options() []optFn {
	var opts []optFn
	if c.QueueMultiplier > 0 {
		opts = append(opts, WithTaskQueueCapacityMultiplier(c.QueueMultiplier))
	}
	if c.PoolSize > 0 {
		opts = append(opts, WithPoolSize(c.PoolSize))
	}
	if c.StatsInterval > 0 {
		opts = append(opts, WithStatsInterval(c.StatsInterval))
	}
	return opts
}

// TaskFunc runs with a context whose baggage is a private copy of the
// dispatcher's, tagged with the task id.
type TaskFunc func(ctx context.Context) error

type WorkerPool struct {
	tasks               chan task
	size                uint32
	taskQueueMultiplier uint32
	workers             chan struct{}
	wg                  sync.WaitGroup
	active              sync.Map
	factory             *baggage.Factory
	statsInterval       time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

type task struct {
	ID  uuid.UUID
	ctx context.Context
	fn  TaskFunc
}

type optFn func(*WorkerPool)

func WithPoolSize(size uint32) optFn {
	return func(p *WorkerPool) {
		p.size = size
		p.workers = make(chan struct{}, size)
		WithTaskQueueCapacityMultiplier(p.taskQueueMultiplier)(p)
	}
}

func WithTaskQueueCapacityMultiplier(factor uint32) optFn {
	return func(p *WorkerPool) {
		p.taskQueueMultiplier = factor
		p.tasks = make(chan task, p.size*factor)
	}
}

// WithBaggageFactory sets the factory used when a task is dispatched from a
// context carrying no baggage.
func WithBaggageFactory(f *baggage.Factory) optFn {
	return func(p *WorkerPool) {
		p.factory = f
	}
}

func WithStatsInterval(d time.Duration) optFn {
	return func(p *WorkerPool) {
		p.statsInterval = d
	}
}

func New(opts ...optFn) *WorkerPool {
	p := &WorkerPool{
		size:                workerPoolDefaultSize,
		tasks:               make(chan task, workerPoolDefaultSize*taskQueueDefaultCapacityMultiplier),
		workers:             make(chan struct{}, workerPoolDefaultSize),
		taskQueueMultiplier: taskQueueDefaultCapacityMultiplier,
		factory:             baggage.NewFactory(baggage.Config{}),
		statsInterval:       statsDefaultInterval,
		done:                make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	collector := collector(p)

	p.wg.Go(func() {
		wg := sync.WaitGroup{}
		for task := range p.tasks {
			p.workers <- struct{}{} // acquire slot

			wg.Go(func() {
				p.run(task, collector)
			})
		}

		wg.Wait()
		close(collector)
	})

	return p
}

func (p *WorkerPool) run(t task, collector chan<- time.Duration) {
	ctx, span := tracer.Start(t.ctx, "worker.task")
	start := time.Now()
	p.active.Store(t.ID, start)

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "worker panicked", "error", r)
		}

		p.active.Delete(t.ID)
		span.End()
		<-p.workers // release slot

		took := time.Since(start)
		collector <- took

		slog.DebugContext(ctx, "worker ended", "took", took.String())
	}()

	slog.DebugContext(ctx, "worker started")
	if err := t.fn(ctx); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "task failed", "error", err)
	}
}

// Dispatch queues fn. The task receives a copy of ctx's baggage with the task
// id set; changes it makes to that copy never reach the caller. When ctx
// carries no baggage the pool's factory creates a TODO one.
func (p *WorkerPool) Dispatch(ctx context.Context, fn TaskFunc) (taskId uuid.UUID, err error) {
	defer func() {
		r := recover()
		if r != nil {
			if _, ok := r.(*baggage.TODOError); ok {
				panic(r)
			}
			// named return value
			err = fmt.Errorf("%w: %v", ErrPoolClosed, r)
			return
		}
	}()

	select {
	case <-p.done:
		return uuid.Nil, ErrPoolClosed
	default:
	}

	b, ok := metadata.Lookup(ctx)
	if !ok {
		b = p.factory.TODOAt("task dispatched without baggage", baggage.Caller(1))
	}

	taskId = uuid.Must(uuid.NewV7())
	fields.SetTaskID(&b, taskId)

	p.tasks <- task{
		ID:  taskId,
		ctx: metadata.NewContext(ctx, b),
		fn:  fn,
	}
	return taskId, nil
}

// Active returns the ids of the tasks currently running.
func (p *WorkerPool) Active() []uuid.UUID {
	var ids []uuid.UUID
	p.active.Range(func(key, _ any) bool {
		ids = append(ids, key.(uuid.UUID))
		return true
	})
	return ids
}

// Wait stops accepting tasks and blocks until every queued task finished.
func (p *WorkerPool) Wait() {
	p.closeOnce.Do(func() {
		slog.Debug("closing incoming tasks channel")
		close(p.done)
		close(p.tasks)
	})

	now := time.Now()
	slog.Debug("waiting for queued tasks", "queued-tasks", len(p.tasks))
	p.wg.Wait()
	slog.Debug("worker pool finished all tasks", "took", time.Since(now).String())
}
