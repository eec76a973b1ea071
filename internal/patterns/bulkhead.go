package patterns

import (
	"context"
	"fmt"

	"github.com/smartshop/checkout/internal/metrics"
)

// Bulkhead implements the bulkhead pattern for resource isolation
type Bulkhead struct {
	semaphore chan struct{}
	name      string
	service   string
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, name, service string) *Bulkhead {
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		name:      name,
		service:   service,
	}
}

// Execute runs a function within the bulkhead's resource limits. Waiting
// for a slot is bounded by the caller's context.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-ctx.Done():
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: %w", b.name, ctx.Err())
	}
}

// GetName returns the bulkhead name
func (b *Bulkhead) GetName() string {
	return b.name
}
