// Package mock provides a mock publisher for testing.
package mock

import (
	"context"
	"sync"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/publisher"
)

var _ publisher.Publisher = (*MockPublisher)(nil)

// MockPublisher records published dispatches for assertions.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*domain.JobDispatch

	// PublishFn overrides Publish behavior when set.
	PublishFn func(ctx context.Context, dispatch *domain.JobDispatch) error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, dispatch *domain.JobDispatch) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(ctx, dispatch); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Published = append(m.Published, dispatch)
	m.mu.Unlock()
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
