package sink

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/vidctl/reconcile"
)

// Async queues reports for a slow sink and delivers them from its own
// goroutine, so a pass never waits on the network. When the queue is full
// the report is dropped and counted.
type Async struct {
	next   reconcile.Sink
	queue  chan queued
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

type queued struct {
	ctx context.Context
	rep reconcile.Report
}

// NewAsync wraps next with a queue of size reports (default 64).
func NewAsync(next reconcile.Sink, size int, logger *slog.Logger) *Async {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		next:   next,
		queue:  make(chan queued, size),
		logger: logger,
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		if err := a.next.Send(q.ctx, q.rep); err != nil {
			a.logger.Warn("sink: async delivery failed", "report_id", q.rep.ID, "error", err)
		}
	}
}

// Dropped returns how many reports were discarded on a full queue.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Send enqueues rep. Delivery outlives the cancellation of ctx.
func (a *Async) Send(ctx context.Context, rep reconcile.Report) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), rep: rep}:
	default:
		a.dropped.Add(1)
		a.logger.Warn("sink: queue full, report dropped", "report_id", rep.ID)
	}
	return nil
}

// Close delivers what is queued, then closes the wrapped sink.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
	return a.next.Close()
}
