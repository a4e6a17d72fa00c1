package client

import (
	"context"
	"fmt"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// Bounds for the interactive order polling loop.
const (
	MinOrderPollAttempts = 1
	MaxOrderPollAttempts = 100
	MinOrderPollInterval = 5 * time.Second
	MaxOrderPollInterval = 300 * time.Second
)

// OrderPollOptions bounds the interactive order polling loop. Out-of-range
// values are rejected before any network call.
type OrderPollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

// OrderStatusRecord is one observation in the polling history.
type OrderStatusRecord struct {
	Status      types.OrderStatus `json:"status"`
	ProgressPct float64           `json:"progressPct"`
	Timestamp   time.Time         `json:"timestamp"`
}

// OrderPollResult is the outcome of an order polling session. Completed is
// false when the attempts ran out before a terminal state; that is a normal
// outcome, not an error, and the full history is returned either way.
type OrderPollResult struct {
	OrderID     string              `json:"orderId"`
	Completed   bool                `json:"completed"`
	FinalStatus types.OrderStatus   `json:"finalStatus,omitempty"`
	Order       *types.Order        `json:"order,omitempty"`
	History     []OrderStatusRecord `json:"history"`
	Suggestion  string              `json:"suggestion,omitempty"`
}

// PollOrderStatus blocks until the order reaches a terminal lifecycle state
// (COMPLETED, FAILED or CANCELLED) or the attempts are exhausted. A client
// error during any attempt aborts the loop and is returned together with the
// partial history collected so far.
func (c *Client) PollOrderStatus(ctx context.Context, orderID string, opts OrderPollOptions) (*OrderPollResult, error) {
	if orderID == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "order identifier is required")
	}
	if opts.MaxAttempts < MinOrderPollAttempts || opts.MaxAttempts > MaxOrderPollAttempts {
		return nil, errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("maxAttempts must be between %d and %d", MinOrderPollAttempts, MaxOrderPollAttempts))
	}
	if opts.Interval < MinOrderPollInterval || opts.Interval > MaxOrderPollInterval {
		return nil, errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("interval must be between %v and %v", MinOrderPollInterval, MaxOrderPollInterval))
	}

	result := &OrderPollResult{
		OrderID: orderID,
		History: make([]OrderStatusRecord, 0, opts.MaxAttempts),
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		order, err := c.GetOrder(ctx, orderID)
		if err != nil {
			return result, err
		}

		result.History = append(result.History, OrderStatusRecord{
			Status:      order.Status,
			ProgressPct: order.ProgressPct,
			Timestamp:   time.Now(),
		})
		result.FinalStatus = order.Status
		result.Order = order

		if order.Status.Terminal() {
			result.Completed = true
			return result, nil
		}

		if attempt < opts.MaxAttempts {
			if err := c.sleep(ctx, opts.Interval); err != nil {
				return result, err
			}
		}
	}

	result.Suggestion = fmt.Sprintf(
		"order is still %s after %d attempts; poll again with a higher maxAttempts or a longer interval",
		result.FinalStatus, opts.MaxAttempts)
	return result, nil
}
