package timeout

import (
	"context"
	"errors"
	"sync"
	"time"
)

// OperationTimeouts holds the default budget per tool operation. Bulk
// operations get a far larger budget than single calls because they chain up
// to 100 sequential vendor calls with polling in between.
var OperationTimeouts = map[string]time.Duration{
	"search_archives":        60 * time.Second,
	"check_feasibility":      2 * time.Minute,
	"poll_order_status":      10 * time.Minute,
	"bulk_check_feasibility": 30 * time.Minute,
	"bulk_place_orders":      30 * time.Minute,
}

// Manager resolves the timeout for a named operation. An existing context
// deadline shorter than the configured budget always wins.
type Manager struct {
	global    time.Duration
	operation map[string]time.Duration
	mu        sync.RWMutex
}

// NewManager creates a manager with the default per-operation table.
func NewManager(globalTimeout time.Duration) *Manager {
	operation := make(map[string]time.Duration, len(OperationTimeouts))
	for op, d := range OperationTimeouts {
		operation[op] = d
	}
	return &Manager{
		global:    globalTimeout,
		operation: operation,
	}
}

// SetOperationTimeout overrides the budget for one operation.
func (m *Manager) SetOperationTimeout(operation string, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operation[operation] = timeout
}

// GetTimeout returns the effective timeout for an operation.
func (m *Manager) GetTimeout(ctx context.Context, operation string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	budget := m.global
	if opTimeout, exists := m.operation[operation]; exists {
		budget = opTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < budget {
			return remaining
		}
	}
	return budget
}

// WithTimeout derives a context bounded by the operation's budget.
func (m *Manager) WithTimeout(ctx context.Context, operation string) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.GetTimeout(ctx, operation))
}

// IsTimeout reports whether the error is a context deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
