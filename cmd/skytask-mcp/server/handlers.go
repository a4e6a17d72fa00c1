package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/bulk"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/client"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/schemas"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/timeout"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// decodeArgs binds the raw tool arguments onto a typed request struct.
func decodeArgs(request mcp.CallToolRequest, out any) error {
	raw, err := json.Marshal(request.GetArguments())
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidRequest)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.New(errors.CodeInvalidRequest, fmt.Sprintf("malformed tool arguments: %v", err))
	}
	return nil
}

// normalizeTimeout maps a blown operation budget onto the network error
// class so callers get a classified code instead of a bare context error.
func normalizeTimeout(operation string, err error) error {
	if timeout.IsTimeout(err) {
		return errors.New(errors.CodeNetwork, fmt.Sprintf("operation %s timed out", operation))
	}
	return err
}

func (s *Server) handleSearchArchives(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.SearchArchivesRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	ctx, cancel := s.timeouts.WithTimeout(ctx, "search_archives")
	defer cancel()

	res, err := s.client.SearchArchives(ctx, req.ToDomain())
	if err != nil {
		return schemas.Fail(normalizeTimeout("search_archives", err))
	}
	return schemas.OK(res)
}

func (s *Server) handleListArchives(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	res, err := s.client.ListArchives(ctx, request.GetString("pageToken", ""))
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(res)
}

func (s *Server) handleGetArchive(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.GetArchiveRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	res, err := s.client.GetArchive(ctx, req.ArchiveID)
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(res)
}

func (s *Server) handleGetPricing(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.GetPricingRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	res, err := s.client.GetPricing(ctx, &types.PricingRequest{AOI: req.AOI})
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(res)
}

// feasibilityPayload decorates the raw result with the classification and,
// when nothing is feasible, a hint the agent can relay.
type feasibilityPayload struct {
	Feasible bool                     `json:"feasible"`
	Result   *types.FeasibilityResult `json:"result"`
	Hint     string                   `json:"hint,omitempty"`
}

func (s *Server) handleCheckFeasibility(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.CheckFeasibilityRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	ctx, cancel := s.timeouts.WithTimeout(ctx, "check_feasibility")
	defer cancel()

	var result *types.FeasibilityResult
	var err error
	if req.Wait == nil || *req.Wait {
		result, err = s.client.CheckFeasibilityAndWait(ctx, req.ToDomain(), client.FeasibilityPollConfig{})
	} else {
		result, err = s.client.CheckFeasibility(ctx, req.ToDomain())
	}
	if err != nil {
		return schemas.Fail(normalizeTimeout("check_feasibility", err))
	}

	payload := feasibilityPayload{Feasible: result.Feasible(), Result: result}
	if !payload.Feasible {
		payload.Hint = "No feasible capture found; extend the capture window, relax the cloud-cover limit, or use SAR for weather-independent capture."
	}
	return schemas.OK(payload)
}

func (s *Server) handleGetFeasibilityStatus(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.GetFeasibilityStatusRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	result, err := s.client.GetFeasibilityStatus(ctx, req.CheckID)
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(feasibilityPayload{Feasible: result.Feasible(), Result: result})
}

func (s *Server) handlePlaceArchiveOrder(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.PlaceArchiveOrderRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	order, err := s.client.PlaceArchiveOrder(ctx, &types.ArchiveOrderRequest{
		ArchiveID: req.ArchiveID,
		AOI:       req.AOI,
	})
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(order)
}

func (s *Server) handlePlaceTaskingOrder(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.PlaceTaskingOrderRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	order, err := s.client.PlaceTaskingOrder(ctx, req.ToDomain())
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(order)
}

func (s *Server) handleGetOrder(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	orderID, err := request.RequireString("orderId")
	if err != nil {
		return schemas.Fail(errors.New(errors.CodeInvalidRequest, err.Error()))
	}

	order, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(order)
}

func (s *Server) handlePollOrderStatus(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.PollOrderStatusRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if req.MaxAttempts == 0 {
		req.MaxAttempts = 10
	}
	if req.IntervalSeconds == 0 {
		req.IntervalSeconds = 30
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	ctx, cancel := s.timeouts.WithTimeout(ctx, "poll_order_status")
	defer cancel()

	result, err := s.client.PollOrderStatus(ctx, req.OrderID, client.OrderPollOptions{
		MaxAttempts: req.MaxAttempts,
		Interval:    time.Duration(req.IntervalSeconds) * time.Second,
	})
	if err != nil {
		// The partial history is still worth surfacing alongside the error.
		env := schemas.Fail(normalizeTimeout("poll_order_status", err))
		env.Data = result
		return env
	}
	return schemas.OK(result)
}

func (s *Server) handleListOrders(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	res, err := s.client.ListOrders(ctx, request.GetString("pageToken", ""))
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(res)
}

func (s *Server) handleCreateMonitor(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.CreateMonitorRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	monitor, err := s.client.CreateMonitor(ctx, req.ToDomain())
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(monitor)
}

func (s *Server) handleListMonitors(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	monitors, err := s.client.ListMonitors(ctx)
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(monitors)
}

func (s *Server) handleGetMonitor(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.MonitorIDRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	monitor, err := s.client.GetMonitor(ctx, req.MonitorID)
	if err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(monitor)
}

func (s *Server) handleDeleteMonitor(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.MonitorIDRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	if err := s.client.DeleteMonitor(ctx, req.MonitorID); err != nil {
		return schemas.Fail(err)
	}
	return schemas.OK(map[string]string{"monitorId": req.MonitorID, "status": "deleted"})
}

func (s *Server) handleBulkCheckFeasibility(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.BulkFeasibilityRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	ctx, cancel := s.timeouts.WithTimeout(ctx, "bulk_check_feasibility")
	defer cancel()

	batchReq := &bulk.FeasibilityBatchRequest{
		Locations:        toDomainLocations(req.Locations),
		ProductType:      types.ProductType(req.ProductType),
		Resolution:       types.Resolution(req.Resolution),
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		MaxCloudCoverPct: req.MaxCloudCoverPct,
		RequiredProvider: req.RequiredProvider,
	}

	report, err := s.bulk.CheckFeasibility(ctx, batchReq, logProgress("bulk_check_feasibility"))
	if err != nil {
		return schemas.Fail(normalizeTimeout("bulk_check_feasibility", err))
	}
	return schemas.OK(report)
}

func (s *Server) handleBulkPlaceOrders(ctx context.Context, request mcp.CallToolRequest) schemas.ToolResponse {
	var req schemas.BulkOrderRequest
	if err := decodeArgs(request, &req); err != nil {
		return schemas.Fail(err)
	}
	if err := schemas.Validate(&req); err != nil {
		return schemas.Fail(err)
	}

	ctx, cancel := s.timeouts.WithTimeout(ctx, "bulk_place_orders")
	defer cancel()

	batchReq := &bulk.OrderBatchRequest{
		Locations:         toDomainLocations(req.Locations),
		ProductType:       types.ProductType(req.ProductType),
		Resolution:        types.Resolution(req.Resolution),
		WindowStart:       req.WindowStart,
		WindowEnd:         req.WindowEnd,
		MaxCloudCoverPct:  req.MaxCloudCoverPct,
		ConfirmationToken: req.ConfirmationToken,
	}

	report, err := s.bulk.PlaceOrders(ctx, batchReq, logProgress("bulk_place_orders"))
	if err != nil {
		return schemas.Fail(normalizeTimeout("bulk_place_orders", err))
	}
	return schemas.OK(report)
}

func toDomainLocations(inputs []schemas.LocationInput) []types.Location {
	locations := make([]types.Location, 0, len(inputs))
	for _, in := range inputs {
		locations = append(locations, in.ToDomain())
	}
	return locations
}

// logProgress reports batch progress on the server log. The MCP transport has
// no incremental channel for tool output, so progress lands in the log
// stream where operators watch long batches.
func logProgress(operation string) bulk.ProgressFunc {
	return func(p types.BatchProgress) {
		if p.Current != "" {
			log.Printf("[%s] %d/%d done (%d ok, %d failed), processing %s",
				operation, p.Completed, p.Total, p.Successful, p.Failed, p.Current)
		}
	}
}
