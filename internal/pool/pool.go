package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/metrics"
)

// Processor handles one dispatch. A nil return means the message is settled
// (terminal outcome recorded or stale dispatch dropped); an error means the
// outcome could not be recorded and the message must be dead-lettered.
type Processor interface {
	Process(ctx context.Context, dispatch *domain.JobDispatch) error
}

// WorkerPool runs a fixed number of goroutines draining the dispatch channel.
// Pool size bounds generation concurrency; the consumer's prefetch matches it
// so the broker never hands out more work than the pool can hold.
type WorkerPool struct {
	size      int
	jobs      <-chan *domain.JobMessage
	processor Processor
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool.
func NewWorkerPool(size int, jobs <-chan *domain.JobMessage, processor Processor, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:      size,
		jobs:      jobs,
		processor: processor,
		logger:    logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", id),
				zap.Any("panic", r),
			)
		}
	}()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Job channel closed", zap.Int("worker_id", id))
				return
			}

			dispatch := msg.Dispatch

			p.logger.Info("Worker processing dispatch",
				zap.Int("worker_id", id),
				zap.String("job_id", dispatch.JobID.String()),
				zap.String("capability", string(dispatch.Capability)),
				zap.Int("epoch", dispatch.Epoch),
			)

			metrics.WorkersActive.Inc()
			err := p.processor.Process(ctx, dispatch)
			metrics.WorkersActive.Dec()

			if err != nil {
				p.logger.Error("Dispatch processing failed",
					zap.Int("worker_id", id),
					zap.String("job_id", dispatch.JobID.String()),
					zap.Error(err),
				)

				// Nack without requeue: the outcome could not be recorded,
				// so the message goes to the DLQ for inspection. Requeueing
				// a deterministic failure would loop forever.
				if nackErr := msg.Nack(false); nackErr != nil {
					p.logger.Error("Failed to NACK message",
						zap.String("job_id", dispatch.JobID.String()),
						zap.Error(nackErr),
					)
				}
				continue
			}

			// Settled: completed, failed terminally, or dropped as stale.
			// All of these remove the message from the queue.
			if ackErr := msg.Ack(); ackErr != nil {
				p.logger.Error("Failed to ACK message",
					zap.String("job_id", dispatch.JobID.String()),
					zap.Error(ackErr),
				)
			}
		}
	}
}
