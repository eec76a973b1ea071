package patterns

import (
	"context"
	"time"
)

// WithTimeout creates a context with timeout for fail-fast behavior
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

// GenerateTimeout bounds a single text-generation call
const GenerateTimeout = 3 * time.Second
