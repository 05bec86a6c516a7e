// internal/service/worker.go
package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
)

// TaskExecutor is what a worker runs for each task; Deliverer implements it.
type TaskExecutor interface {
	Execute(ctx context.Context, task queue.Task) error
}

// WorkerPool drains a bounded task buffer with a fixed number of workers.
// Large recipient lists therefore never spawn a goroutine per recipient:
// Submit blocks once the buffer is full, pushing backpressure into the
// dispatcher.
type WorkerPool struct {
	executor TaskExecutor
	tasks    chan queue.Task
	workers  int
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewWorkerPool(executor TaskExecutor, workers, queueSize int, log *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		executor: executor,
		tasks:    make(chan queue.Task, queueSize),
		workers:  workers,
		log:      log,
	}
}

func (p *WorkerPool) Submit(task queue.Task) {
	p.tasks <- task
}

// Run starts the workers. They stop when ctx is cancelled; buffered tasks
// still pending at that point are dropped, which is safe because a later
// re-dispatch skips every (campaign, recipient) pair already logged.
func (p *WorkerPool) Run(ctx context.Context) {
	p.log.Info("worker pool started",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.tasks)),
	)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop blocks until every worker has exited.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			if err := p.executor.Execute(ctx, task); err != nil {
				p.log.Error("task execution failed",
					zap.Int("campaign_id", task.CampaignID),
					zap.Int("recipient_id", task.RecipientID),
					zap.Error(err),
				)
			}
		}
	}
}
