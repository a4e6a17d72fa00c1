package client

import (
	"context"
	"log"
	"time"

	"github.com/skytask-mcp/skytask/pkg/types"
)

// Defaults for the feasibility polling loop.
const (
	DefaultFeasibilityPollAttempts = 10
	DefaultFeasibilityPollInterval = 3 * time.Second
)

// FeasibilityPollConfig bounds the feasibility polling loop.
type FeasibilityPollConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

func (cfg FeasibilityPollConfig) withDefaults() FeasibilityPollConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultFeasibilityPollAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultFeasibilityPollInterval
	}
	return cfg
}

// CheckFeasibilityAndWait hides the vendor's asynchronous feasibility
// workflow behind a single blocking call: it submits the check, then polls
// the status endpoint until the result is complete or attempts run out.
//
// If the initial response is already complete it is returned without a
// single polling round-trip. Exhausting the attempts is not an error: the
// last-observed result is returned as-is, with whatever partial data exists,
// because an incomplete-but-non-error result is still actionable.
func (c *Client) CheckFeasibilityAndWait(ctx context.Context, req *types.FeasibilityRequest, cfg FeasibilityPollConfig) (*types.FeasibilityResult, error) {
	cfg = cfg.withDefaults()

	result, err := c.CheckFeasibility(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Complete() {
		return result, nil
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, cfg.Interval); err != nil {
			return result, err
		}

		status, err := c.GetFeasibilityStatus(ctx, result.ID)
		if err != nil {
			return nil, err
		}
		result = status
		if result.Complete() {
			return result, nil
		}
	}

	log.Printf("[client] feasibility check %s still incomplete after %d polls, returning last status",
		result.ID, cfg.MaxAttempts)
	return result, nil
}
