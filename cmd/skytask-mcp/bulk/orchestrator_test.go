package bulk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/client"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// mockAPI implements API with scriptable behavior per AOI.
type mockAPI struct {
	readyErr   error
	feasFunc   func(req *types.FeasibilityRequest) (*types.FeasibilityResult, error)
	orderFunc  func(req *types.TaskingOrderRequest) (*types.Order, error)
	feasCalls  []string
	orderCalls []string
}

func (m *mockAPI) Ready() error { return m.readyErr }

func (m *mockAPI) CheckFeasibilityAndWait(ctx context.Context, req *types.FeasibilityRequest, cfg client.FeasibilityPollConfig) (*types.FeasibilityResult, error) {
	m.feasCalls = append(m.feasCalls, req.AOI)
	if m.feasFunc != nil {
		return m.feasFunc(req)
	}
	return &types.FeasibilityResult{ID: "chk", OverallScore: 0.8, WeatherScore: 0.9}, nil
}

func (m *mockAPI) PlaceTaskingOrder(ctx context.Context, req *types.TaskingOrderRequest) (*types.Order, error) {
	m.orderCalls = append(m.orderCalls, req.AOI)
	if m.orderFunc != nil {
		return m.orderFunc(req)
	}
	return &types.Order{ID: fmt.Sprintf("ord-%d", len(m.orderCalls)), Status: types.OrderPending}, nil
}

func testOrchestrator(api API) *Orchestrator {
	o := New(api)
	o.FeasibilityDelay = 0
	o.OrderDelay = 0
	return o
}

func locations(n int) []types.Location {
	locs := make([]types.Location, 0, n)
	for i := 0; i < n; i++ {
		locs = append(locs, types.Location{
			ID:   fmt.Sprintf("loc-%d", i),
			Name: fmt.Sprintf("Site %d", i),
			AOI:  fmt.Sprintf("POINT(%d %d)", i, i),
		})
	}
	return locs
}

func feasRequest(locs []types.Location) *FeasibilityBatchRequest {
	return &FeasibilityBatchRequest{
		Locations:   locs,
		ProductType: types.ProductDay,
		Resolution:  types.ResolutionHigh,
		WindowStart: time.Now(),
		WindowEnd:   time.Now().Add(72 * time.Hour),
	}
}

func TestBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	api := &mockAPI{
		feasFunc: func(req *types.FeasibilityRequest) (*types.FeasibilityResult, error) {
			if req.AOI == "POINT(1 1)" {
				return nil, errors.NewHTTP(errors.CodeInternal, "provider exploded", 500)
			}
			return &types.FeasibilityResult{ID: "chk", OverallScore: 0.8, WeatherScore: 0.9}, nil
		},
	}
	o := testOrchestrator(api)

	report, err := o.CheckFeasibility(context.Background(), feasRequest(locations(3)), nil)
	if err != nil {
		t.Fatalf("batch must not abort on a per-item failure: %v", err)
	}

	if len(report.Results) != 3 {
		t.Fatalf("results = %d, want one per input location", len(report.Results))
	}
	for i, r := range report.Results {
		if want := fmt.Sprintf("loc-%d", i); r.LocationID != want {
			t.Errorf("results[%d].LocationID = %s, want %s (input order)", i, r.LocationID, want)
		}
	}
	if report.Results[1].Success || report.Results[1].Error == nil {
		t.Error("second location should carry a structured error")
	}
	if !report.Results[0].Success || !report.Results[2].Success {
		t.Error("other locations should succeed")
	}

	p := report.Progress
	if p.Completed != 3 || p.Pending != 0 || p.Successful != 2 || p.Failed != 1 {
		t.Errorf("final progress = %+v, want 3/0/2/1", p)
	}
	if report.Summary.Errors != 1 || report.Summary.Feasible != 2 {
		t.Errorf("summary = %+v, want 2 feasible, 1 error", report.Summary)
	}
}

func TestBatchSizeCapRejectedBeforeAnyCall(t *testing.T) {
	api := &mockAPI{}
	o := testOrchestrator(api)

	_, err := o.CheckFeasibility(context.Background(), feasRequest(locations(101)), nil)
	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeInvalidRequest {
		t.Fatalf("want INVALID_REQUEST, got %v", err)
	}
	if len(api.feasCalls) != 0 {
		t.Errorf("vendor called %d times, want 0", len(api.feasCalls))
	}
}

func TestOrderBatchRequiresConfirmationToken(t *testing.T) {
	api := &mockAPI{}
	o := testOrchestrator(api)

	req := &OrderBatchRequest{
		Locations:   locations(2),
		ProductType: types.ProductDay,
		Resolution:  types.ResolutionHigh,
		WindowStart: time.Now(),
		WindowEnd:   time.Now().Add(72 * time.Hour),
	}
	_, err := o.PlaceOrders(context.Background(), req, nil)
	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeInvalidRequest {
		t.Fatalf("want INVALID_REQUEST, got %v", err)
	}
	if len(api.orderCalls) != 0 {
		t.Errorf("vendor called %d times, want 0", len(api.orderCalls))
	}
}

func TestMissingCredentialsAbortBatch(t *testing.T) {
	api := &mockAPI{readyErr: errors.New(errors.CodeConfiguration, "vendor API key is not configured")}
	o := testOrchestrator(api)

	_, err := o.CheckFeasibility(context.Background(), feasRequest(locations(2)), nil)
	apiErr, ok := errors.As(err)
	if !ok || apiErr.Code != errors.CodeConfiguration {
		t.Fatalf("want CONFIGURATION_ERROR, got %v", err)
	}
	if len(api.feasCalls) != 0 {
		t.Errorf("vendor called %d times, want 0", len(api.feasCalls))
	}
}

func TestProgressCallbackReceivesSnapshots(t *testing.T) {
	api := &mockAPI{}
	o := testOrchestrator(api)

	var snapshots []types.BatchProgress
	_, err := o.CheckFeasibility(context.Background(), feasRequest(locations(2)), func(p types.BatchProgress) {
		snapshots = append(snapshots, p)
		// Mutating the received value must not affect the orchestrator.
		p.Completed = 999
		p.Current = "clobbered"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two snapshots per location: before and after.
	if len(snapshots) != 4 {
		t.Fatalf("snapshots = %d, want 4", len(snapshots))
	}
	first := snapshots[0]
	if first.Total != 2 || first.Completed != 0 || first.Pending != 2 || first.Current != "Site 0" {
		t.Errorf("first snapshot = %+v", first)
	}
	last := snapshots[3]
	if last.Completed != 2 || last.Pending != 0 || last.Completed == 999 {
		t.Errorf("last snapshot = %+v; callback mutation leaked", last)
	}
}

func TestLocationWithoutGeometryFailsWithoutVendorCall(t *testing.T) {
	api := &mockAPI{}
	o := testOrchestrator(api)

	locs := locations(2)
	locs[0].AOI = ""
	report, err := o.CheckFeasibility(context.Background(), feasRequest(locs), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Results[0].Success {
		t.Error("location without geometry should fail")
	}
	if report.Results[0].Error.Code != errors.CodeInvalidRequest {
		t.Errorf("error code = %s, want INVALID_REQUEST", report.Results[0].Error.Code)
	}
	if len(api.feasCalls) != 1 {
		t.Errorf("vendor calls = %d, want 1 (only the valid location)", len(api.feasCalls))
	}
}

func TestFeasibilityClassificationUsesProviderSignals(t *testing.T) {
	api := &mockAPI{
		feasFunc: func(req *types.FeasibilityRequest) (*types.FeasibilityResult, error) {
			// Zero overall score but one provider with an opportunity.
			return &types.FeasibilityResult{
				ID: "chk",
				Providers: []types.ProviderFeasibility{
					{Provider: "alpha", Status: types.ProviderComplete,
						Opportunities: []types.Opportunity{{Provider: "alpha"}}},
				},
			}, nil
		},
	}
	o := testOrchestrator(api)

	report, err := o.CheckFeasibility(context.Background(), feasRequest(locations(1)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Results[0].Value.Feasible {
		t.Error("provider opportunity should classify the location as feasible")
	}
}

func TestOrderBatchCollectsOrderIDs(t *testing.T) {
	api := &mockAPI{}
	o := testOrchestrator(api)

	req := &OrderBatchRequest{
		Locations:         locations(3),
		ProductType:       types.ProductSAR,
		Resolution:        types.ResolutionCM30,
		WindowStart:       time.Now(),
		WindowEnd:         time.Now().Add(72 * time.Hour),
		ConfirmationToken: "CONFIRM-SPEND",
	}
	report, err := o.PlaceOrders(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Summary.Successful != 3 || report.Summary.Failed != 0 {
		t.Errorf("summary = %+v, want 3 successful", report.Summary)
	}
	if len(report.Summary.OrderIDs) != 3 {
		t.Errorf("order IDs = %v, want 3 entries", report.Summary.OrderIDs)
	}
}

func TestCancellationAbortsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &mockAPI{
		feasFunc: func(req *types.FeasibilityRequest) (*types.FeasibilityResult, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	o := testOrchestrator(api)

	_, err := o.CheckFeasibility(ctx, feasRequest(locations(3)), nil)
	if err == nil {
		t.Fatal("cancellation should abort the batch")
	}
	if len(api.feasCalls) != 1 {
		t.Errorf("vendor calls = %d, want 1 before the abort", len(api.feasCalls))
	}
}
