package pool_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/pool"
)

type recordingProcessor struct {
	mu        sync.Mutex
	processed []uuid.UUID
	errFor    map[uuid.UUID]error
}

func (r *recordingProcessor) Process(ctx context.Context, dispatch *domain.JobDispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, dispatch.JobID)
	if r.errFor != nil {
		return r.errFor[dispatch.JobID]
	}
	return nil
}

func (r *recordingProcessor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processed)
}

func newMessage(id uuid.UUID, acked, nacked *sync.Map) *domain.JobMessage {
	return &domain.JobMessage{
		Dispatch: &domain.JobDispatch{JobID: id, Capability: domain.CapabilityIllustration, Epoch: 1},
		Ack: func() error {
			acked.Store(id, true)
			return nil
		},
		Nack: func(requeue bool) error {
			nacked.Store(id, requeue)
			return nil
		},
	}
}

// Test: every settled dispatch is processed exactly once and acked.
func TestPool_ProcessesAndAcks(t *testing.T) {
	jobs := make(chan *domain.JobMessage, 8)
	proc := &recordingProcessor{}
	p := pool.NewWorkerPool(3, jobs, proc, zap.NewNop())

	var acked, nacked sync.Map
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		jobs <- newMessage(ids[i], &acked, &nacked)
	}
	close(jobs)

	p.Start(context.Background())
	p.Stop()

	if proc.count() != len(ids) {
		t.Fatalf("expected %d processed, got %d", len(ids), proc.count())
	}
	for _, id := range ids {
		if _, ok := acked.Load(id); !ok {
			t.Errorf("message %s was not acked", id)
		}
		if _, ok := nacked.Load(id); ok {
			t.Errorf("message %s was nacked", id)
		}
	}
}

// Test: a processing error dead-letters the message without requeue.
func TestPool_NacksOnError(t *testing.T) {
	jobs := make(chan *domain.JobMessage, 2)
	badID := uuid.New()
	goodID := uuid.New()
	proc := &recordingProcessor{errFor: map[uuid.UUID]error{badID: errors.New("db down")}}
	p := pool.NewWorkerPool(1, jobs, proc, zap.NewNop())

	var acked, nacked sync.Map
	jobs <- newMessage(badID, &acked, &nacked)
	jobs <- newMessage(goodID, &acked, &nacked)
	close(jobs)

	p.Start(context.Background())
	p.Stop()

	if requeue, ok := nacked.Load(badID); !ok {
		t.Error("failed message was not nacked")
	} else if requeue.(bool) {
		t.Error("failed message must not be requeued")
	}
	if _, ok := acked.Load(badID); ok {
		t.Error("failed message must not be acked")
	}
	if _, ok := acked.Load(goodID); !ok {
		t.Error("an error on one message must not block the next")
	}
}

// Test: context cancellation stops idle workers.
func TestPool_StopsOnContextCancel(t *testing.T) {
	jobs := make(chan *domain.JobMessage)
	proc := &recordingProcessor{}
	p := pool.NewWorkerPool(2, jobs, proc, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}
}

// Test: a panicking processor does not take the whole pool down. The
// unacked message is left for broker redelivery, other messages still flow.
func TestPool_RecoverFromPanic(t *testing.T) {
	jobs := make(chan *domain.JobMessage, 2)
	panicID := uuid.New()
	proc := &panickingProcessor{panicOn: panicID}
	p := pool.NewWorkerPool(2, jobs, proc, zap.NewNop())

	var acked, nacked sync.Map
	okID := uuid.New()
	jobs <- newMessage(panicID, &acked, &nacked)
	jobs <- newMessage(okID, &acked, &nacked)
	close(jobs)

	p.Start(context.Background())
	p.Stop()

	if _, ok := acked.Load(okID); !ok {
		t.Error("healthy message should still be acked")
	}
}

type panickingProcessor struct {
	panicOn uuid.UUID
}

func (p *panickingProcessor) Process(ctx context.Context, dispatch *domain.JobDispatch) error {
	if dispatch.JobID == p.panicOn {
		panic("boom")
	}
	return nil
}
