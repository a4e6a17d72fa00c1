package bulk

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/client"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// MaxBatchSize is the hard cap on locations per bulk operation.
const MaxBatchSize = 100

// Inter-location delays, chosen to stay under the vendor's rate limits.
// Order placement is spaced further apart than feasibility checks.
const (
	DefaultFeasibilityDelay = 250 * time.Millisecond
	DefaultOrderDelay       = 500 * time.Millisecond
)

// API is the slice of the transport client the orchestrator drives. Defined
// here so tests can substitute a scripted implementation.
type API interface {
	Ready() error
	CheckFeasibilityAndWait(ctx context.Context, req *types.FeasibilityRequest, cfg client.FeasibilityPollConfig) (*types.FeasibilityResult, error)
	PlaceTaskingOrder(ctx context.Context, req *types.TaskingOrderRequest) (*types.Order, error)
}

// ProgressFunc receives a snapshot copy of the batch progress before and
// after every location. Callers must not assume it is the live value.
type ProgressFunc func(types.BatchProgress)

// Orchestrator applies one vendor operation across an ordered list of
// locations, strictly sequentially, isolating per-location failures. It
// never fans out in parallel: sequential processing respects vendor rate
// limits and keeps progress reporting deterministic.
type Orchestrator struct {
	api API

	// Exposed so tests can collapse the waits.
	FeasibilityDelay time.Duration
	OrderDelay       time.Duration
	PollConfig       client.FeasibilityPollConfig
}

// New creates an orchestrator with the default inter-location delays.
func New(api API) *Orchestrator {
	return &Orchestrator{
		api:              api,
		FeasibilityDelay: DefaultFeasibilityDelay,
		OrderDelay:       DefaultOrderDelay,
	}
}

// FeasibilityBatchRequest applies one feasibility question to every location.
type FeasibilityBatchRequest struct {
	Locations        []types.Location
	ProductType      types.ProductType
	Resolution       types.Resolution
	WindowStart      time.Time
	WindowEnd        time.Time
	MaxCloudCoverPct *float64
	RequiredProvider string
}

// FeasibilityBatchReport is the aggregate outcome of a bulk feasibility run.
type FeasibilityBatchReport struct {
	Results  []types.BatchResult[types.FeasibilityOutcome] `json:"results"`
	Progress types.BatchProgress                           `json:"progress"`
	Summary  types.FeasibilitySummary                      `json:"summary"`
}

// OrderBatchRequest places one tasking order per location. Bulk ordering has
// real financial effect, so the caller must supply a confirmation token.
type OrderBatchRequest struct {
	Locations         []types.Location
	ProductType       types.ProductType
	Resolution        types.Resolution
	WindowStart       time.Time
	WindowEnd         time.Time
	MaxCloudCoverPct  *float64
	ConfirmationToken string
}

// OrderBatchReport is the aggregate outcome of a bulk order run.
type OrderBatchReport struct {
	Results  []types.BatchResult[types.OrderOutcome] `json:"results"`
	Progress types.BatchProgress                     `json:"progress"`
	Summary  types.OrderSummary                      `json:"summary"`
}

// validateBatch runs the checks that must reject the whole batch before any
// vendor call is made.
func (o *Orchestrator) validateBatch(locations []types.Location) error {
	if len(locations) == 0 {
		return errors.New(errors.CodeInvalidRequest, "at least one location is required")
	}
	if len(locations) > MaxBatchSize {
		return errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("batch size %d exceeds the maximum of %d locations", len(locations), MaxBatchSize))
	}
	return o.api.Ready()
}

// CheckFeasibility runs the feasibility check for every location in input
// order. A failing location is captured as a structured error entry and does
// not abort the batch: one bad geometry or transient 5xx must not discard
// results already obtained for other locations.
func (o *Orchestrator) CheckFeasibility(ctx context.Context, req *FeasibilityBatchRequest, onProgress ProgressFunc) (*FeasibilityBatchReport, error) {
	if err := o.validateBatch(req.Locations); err != nil {
		return nil, err
	}

	progress := types.BatchProgress{
		Total:   len(req.Locations),
		Pending: len(req.Locations),
	}
	results := make([]types.BatchResult[types.FeasibilityOutcome], 0, len(req.Locations))

	for i, loc := range req.Locations {
		progress.Current = loc.DisplayName()
		emit(onProgress, progress)

		entry := types.BatchResult[types.FeasibilityOutcome]{
			LocationID:   loc.ID,
			LocationName: loc.Name,
		}

		result, err := o.checkOne(ctx, loc, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			entry.Error = toBatchError(err)
			progress.Failed++
			log.Printf("[bulk] feasibility failed for %s: %v", loc.DisplayName(), err)
		} else {
			entry.Success = true
			entry.Value = types.FeasibilityOutcome{
				Feasible: result.Feasible(),
				Result:   result,
			}
			progress.Successful++
		}

		results = append(results, entry)
		progress.Completed++
		progress.Pending--
		emit(onProgress, progress)

		if i < len(req.Locations)-1 {
			if err := wait(ctx, o.FeasibilityDelay); err != nil {
				return nil, err
			}
		}
	}

	progress.Current = ""
	return &FeasibilityBatchReport{
		Results:  results,
		Progress: progress,
		Summary:  SummarizeFeasibility(results),
	}, nil
}

func (o *Orchestrator) checkOne(ctx context.Context, loc types.Location, req *FeasibilityBatchRequest) (*types.FeasibilityResult, error) {
	aoi := loc.WKT()
	if aoi == "" {
		return nil, errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("location %s has no geometry", loc.DisplayName()))
	}
	return o.api.CheckFeasibilityAndWait(ctx, &types.FeasibilityRequest{
		AOI:              aoi,
		ProductType:      req.ProductType,
		Resolution:       req.Resolution,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		MaxCloudCoverPct: req.MaxCloudCoverPct,
		RequiredProvider: req.RequiredProvider,
	}, o.PollConfig)
}

// PlaceOrders places one tasking order per location in input order, with the
// same per-location failure isolation as CheckFeasibility. The confirmation
// token is checked before any location is processed.
func (o *Orchestrator) PlaceOrders(ctx context.Context, req *OrderBatchRequest, onProgress ProgressFunc) (*OrderBatchReport, error) {
	if req.ConfirmationToken == "" {
		return nil, errors.New(errors.CodeInvalidRequest,
			"bulk ordering requires a confirmation token; orders have real financial effect")
	}
	if err := o.validateBatch(req.Locations); err != nil {
		return nil, err
	}

	progress := types.BatchProgress{
		Total:   len(req.Locations),
		Pending: len(req.Locations),
	}
	results := make([]types.BatchResult[types.OrderOutcome], 0, len(req.Locations))

	for i, loc := range req.Locations {
		progress.Current = loc.DisplayName()
		emit(onProgress, progress)

		entry := types.BatchResult[types.OrderOutcome]{
			LocationID:   loc.ID,
			LocationName: loc.Name,
		}

		order, err := o.orderOne(ctx, loc, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			entry.Error = toBatchError(err)
			progress.Failed++
			log.Printf("[bulk] order failed for %s: %v", loc.DisplayName(), err)
		} else {
			entry.Success = true
			entry.Value = types.OrderOutcome{Order: order}
			progress.Successful++
		}

		results = append(results, entry)
		progress.Completed++
		progress.Pending--
		emit(onProgress, progress)

		if i < len(req.Locations)-1 {
			if err := wait(ctx, o.OrderDelay); err != nil {
				return nil, err
			}
		}
	}

	progress.Current = ""
	return &OrderBatchReport{
		Results:  results,
		Progress: progress,
		Summary:  SummarizeOrders(results),
	}, nil
}

func (o *Orchestrator) orderOne(ctx context.Context, loc types.Location, req *OrderBatchRequest) (*types.Order, error) {
	aoi := loc.WKT()
	if aoi == "" {
		return nil, errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("location %s has no geometry", loc.DisplayName()))
	}
	return o.api.PlaceTaskingOrder(ctx, &types.TaskingOrderRequest{
		AOI:              aoi,
		ProductType:      req.ProductType,
		Resolution:       req.Resolution,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		MaxCloudCoverPct: req.MaxCloudCoverPct,
	})
}

// emit pushes a snapshot copy to the callback. progress is passed by value,
// so the callback can never alias the orchestrator's working state.
func emit(onProgress ProgressFunc, progress types.BatchProgress) {
	if onProgress != nil {
		onProgress(progress)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toBatchError(err error) *types.BatchError {
	if apiErr, ok := errors.As(err); ok {
		return &types.BatchError{Code: apiErr.Code, Message: apiErr.Message}
	}
	return &types.BatchError{Code: errors.CodeInternal, Message: err.Error()}
}
