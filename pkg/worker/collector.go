package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lccmrx/go-context-kit/pkg/telemetry/meter"
)

const taskDurationMetric = "worker.task.duration_ms"

type recorder struct {
	sync.Mutex
	durations []time.Duration
}

func (r *recorder) record(d time.Duration) {
	r.Lock()
	defer r.Unlock()
	r.durations = append(r.durations, d)
}

func (r *recorder) estimatedThroughput() (time.Duration, int) {
	r.Lock()
	defer r.Unlock()
	taskCount := len(r.durations)
	if taskCount == 0 {
		return time.Duration(0), 0
	}

	var totalTime time.Duration
	for _, duration := range r.durations {
		totalTime += duration
	}

	r.durations = make([]time.Duration, 0)
	return totalTime / time.Duration(taskCount), taskCount
}

// collector receives task durations until the pool closes it. It reports
// each one as a metric and logs throughput stats every stats interval.
func collector(p *WorkerPool) chan<- time.Duration {
	collector := make(chan time.Duration)
	r := &recorder{
		durations: make([]time.Duration, 0),
	}

	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for collected := range collector {
			r.record(collected)
			meter.Histogram(context.Background(), taskDurationMetric, collected.Milliseconds())
		}
	}()

	go func() {
		t := time.NewTicker(p.statsInterval)
		defer t.Stop()

		for {
			select {
			case <-stop:
				return
			case <-t.C:
				logStats(p, r)
			}
		}
	}()

	return collector
}

func logStats(p *WorkerPool, r *recorder) {
	workingWorkers := len(p.workers)
	if workingWorkers == 0 {
		return
	}

	throughput, taskCount := r.estimatedThroughput()
	if throughput == time.Duration(0) {
		return
	}

	slog.Debug("worker pool stats",
		"active-workers", workingWorkers,
		"active-task-ids", p.Active(),
		"queued-tasks", len(p.tasks),
		"estimated-throughput", fmt.Sprintf("%s/task (metric of %d tasks)", throughput, taskCount),
	)
}
