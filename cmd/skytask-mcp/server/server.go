package server

import (
	"context"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/bulk"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/client"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/config"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/timeout"
	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/tools"
)

// Server exposes the vendor imagery API as MCP tools over stdio.
type Server struct {
	mcpServer *mcpserver.MCPServer
	registry  *tools.Registry
	client    *client.Client
	bulk      *bulk.Orchestrator
	timeouts  *timeout.Manager
}

// New creates the server and registers every tool.
func New(cfg config.Config) *Server {
	mcpServer := mcpserver.NewMCPServer(
		"skytask",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	apiClient := client.New(cfg)

	s := &Server{
		mcpServer: mcpServer,
		registry:  tools.NewRegistry(),
		client:    apiClient,
		bulk:      bulk.New(apiClient),
		timeouts:  timeout.NewManager(60 * time.Second),
	}

	s.registerTools()
	s.registry.RegisterWithServer(mcpServer)

	return s
}

// Registry returns the constructed tool registry, for dispatch layers that
// invoke tools without the MCP transport.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

func (s *Server) registerTools() {
	defs := []*tools.ToolDefinition{
		{
			Name:        "search_archives",
			Description: "Search the imagery catalog for already-captured scenes over an area of interest",
			Parameters: []mcp.ToolOption{
				mcp.WithString("aoi", mcp.Required(), mcp.Description("Area of interest as WKT (POINT or POLYGON)")),
				mcp.WithString("fromDate", mcp.Required(), mcp.Description("Capture window start, RFC 3339")),
				mcp.WithString("toDate", mcp.Required(), mcp.Description("Capture window end, RFC 3339")),
				mcp.WithString("minResolution", mcp.Description("Minimum resolution tier"),
					mcp.Enum("LOW", "MEDIUM", "HIGH", "VERY_HIGH", "SUPER_HIGH", "ULTRA_HIGH", "CM_30", "CM_50")),
				mcp.WithNumber("maxCloudCoverPct", mcp.Description("Maximum acceptable cloud cover percentage"), mcp.Min(0), mcp.Max(100)),
			},
			Handler: s.handleSearchArchives,
		},
		{
			Name:        "list_archives",
			Description: "Fetch the next page of a previous archive search",
			Parameters: []mcp.ToolOption{
				mcp.WithString("pageToken", mcp.Description("Pagination token from a previous response")),
			},
			Handler: s.handleListArchives,
		},
		{
			Name:        "get_archive",
			Description: "Fetch a single archive catalog entry by identifier",
			Parameters: []mcp.ToolOption{
				mcp.WithString("archiveId", mcp.Required(), mcp.Description("Archive identifier")),
			},
			Handler: s.handleGetArchive,
		},
		{
			Name:        "get_pricing",
			Description: "Get price options for imagery over an area of interest",
			Parameters: []mcp.ToolOption{
				mcp.WithString("aoi", mcp.Required(), mcp.Description("Area of interest as WKT")),
			},
			Handler: s.handleGetPricing,
		},
		{
			Name:        "check_feasibility",
			Description: "Check whether a satellite capture is feasible for an area and window; waits for the asynchronous evaluation",
			Parameters: append(captureParameters(),
				mcp.WithString("requiredProvider", mcp.Description("Restrict the check to one provider")),
				mcp.WithBoolean("wait", mcp.Description("Poll until the check completes (default true)"), mcp.DefaultBool(true)),
			),
			Handler: s.handleCheckFeasibility,
		},
		{
			Name:        "get_feasibility_status",
			Description: "Fetch the current status of a previously submitted feasibility check",
			Parameters: []mcp.ToolOption{
				mcp.WithString("checkId", mcp.Required(), mcp.Description("Feasibility check identifier")),
			},
			Handler: s.handleGetFeasibilityStatus,
		},
		{
			Name:        "place_archive_order",
			Description: "Order delivery of an already-captured archive scene",
			Parameters: []mcp.ToolOption{
				mcp.WithString("archiveId", mcp.Required(), mcp.Description("Archive identifier to order")),
				mcp.WithString("aoi", mcp.Required(), mcp.Description("Delivery area of interest as WKT")),
			},
			Handler: s.handlePlaceArchiveOrder,
		},
		{
			Name:        "place_tasking_order",
			Description: "Schedule a new satellite capture for an area and window",
			Parameters:  captureParameters(),
			Handler:     s.handlePlaceTaskingOrder,
		},
		{
			Name:        "get_order_status",
			Description: "Fetch a single order",
			Parameters: []mcp.ToolOption{
				mcp.WithString("orderId", mcp.Required(), mcp.Description("Order identifier")),
			},
			Handler: s.handleGetOrder,
		},
		{
			Name:        "poll_order_status",
			Description: "Poll an order until it reaches a terminal state, recording the full status history",
			Parameters: []mcp.ToolOption{
				mcp.WithString("orderId", mcp.Required(), mcp.Description("Order identifier")),
				mcp.WithNumber("maxAttempts", mcp.Description("Polling attempts"), mcp.DefaultNumber(10), mcp.Min(1), mcp.Max(100)),
				mcp.WithNumber("intervalSeconds", mcp.Description("Seconds between attempts"), mcp.DefaultNumber(30), mcp.Min(5), mcp.Max(300)),
			},
			Handler: s.handlePollOrderStatus,
		},
		{
			Name:        "list_orders",
			Description: "List placed orders",
			Parameters: []mcp.ToolOption{
				mcp.WithString("pageToken", mcp.Description("Pagination token from a previous response")),
			},
			Handler: s.handleListOrders,
		},
		{
			Name:        "create_monitor",
			Description: "Create a standing subscription that fires a webhook when new imagery becomes available for an area",
			Parameters: []mcp.ToolOption{
				mcp.WithString("name", mcp.Required(), mcp.Description("Monitor name")),
				mcp.WithString("aoi", mcp.Required(), mcp.Description("Area of interest as WKT")),
				mcp.WithString("webhookUrl", mcp.Required(), mcp.Description("URL invoked when imagery arrives")),
				mcp.WithNumber("maxCloudCoverPct", mcp.Description("Maximum acceptable cloud cover percentage"), mcp.Min(0), mcp.Max(100)),
			},
			Handler: s.handleCreateMonitor,
		},
		{
			Name:        "list_monitors",
			Description: "List active imagery monitors",
			Handler:     s.handleListMonitors,
		},
		{
			Name:        "get_monitor",
			Description: "Fetch a single monitor",
			Parameters: []mcp.ToolOption{
				mcp.WithString("monitorId", mcp.Required(), mcp.Description("Monitor identifier")),
			},
			Handler: s.handleGetMonitor,
		},
		{
			Name:        "delete_monitor",
			Description: "Delete a monitor",
			Parameters: []mcp.ToolOption{
				mcp.WithString("monitorId", mcp.Required(), mcp.Description("Monitor identifier")),
			},
			Handler: s.handleDeleteMonitor,
		},
		{
			Name:        "bulk_check_feasibility",
			Description: "Run a feasibility check across up to 100 locations sequentially, with per-location failure isolation and an aggregate summary",
			Parameters: []mcp.ToolOption{
				mcp.WithArray("locations", mcp.Required(), mcp.Description("Locations, each with id, optional name and a WKT aoi")),
				mcp.WithString("productType", mcp.Required(), productTypeEnum()),
				mcp.WithString("resolution", mcp.Required(), resolutionEnum()),
				mcp.WithString("windowStart", mcp.Required(), mcp.Description("Capture window start, RFC 3339")),
				mcp.WithString("windowEnd", mcp.Required(), mcp.Description("Capture window end, RFC 3339")),
				mcp.WithNumber("maxCloudCoverPct", mcp.Description("Maximum acceptable cloud cover percentage"), mcp.Min(0), mcp.Max(100)),
				mcp.WithString("requiredProvider", mcp.Description("Restrict every check to one provider")),
			},
			Handler: s.handleBulkCheckFeasibility,
		},
		{
			Name:        "bulk_place_orders",
			Description: "Place a tasking order for up to 100 locations sequentially; requires a confirmation token because orders have financial effect",
			Parameters: []mcp.ToolOption{
				mcp.WithArray("locations", mcp.Required(), mcp.Description("Locations, each with id, optional name and a WKT aoi")),
				mcp.WithString("productType", mcp.Required(), productTypeEnum()),
				mcp.WithString("resolution", mcp.Required(), resolutionEnum()),
				mcp.WithString("windowStart", mcp.Required(), mcp.Description("Capture window start, RFC 3339")),
				mcp.WithString("windowEnd", mcp.Required(), mcp.Description("Capture window end, RFC 3339")),
				mcp.WithNumber("maxCloudCoverPct", mcp.Description("Maximum acceptable cloud cover percentage"), mcp.Min(0), mcp.Max(100)),
				mcp.WithString("confirmationToken", mcp.Required(), mcp.Description("Caller-supplied token confirming the spend")),
			},
			Handler: s.handleBulkPlaceOrders,
		},
	}

	for _, def := range defs {
		if err := s.registry.Register(def); err != nil {
			log.Fatalf("registering tool %s: %v", def.Name, err)
		}
	}
}

// captureParameters are the options shared by feasibility checks and tasking
// orders.
func captureParameters() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("aoi", mcp.Required(), mcp.Description("Area of interest as WKT (POINT or POLYGON)")),
		mcp.WithString("productType", mcp.Required(), productTypeEnum()),
		mcp.WithString("resolution", mcp.Required(), resolutionEnum()),
		mcp.WithString("windowStart", mcp.Required(), mcp.Description("Capture window start, RFC 3339")),
		mcp.WithString("windowEnd", mcp.Required(), mcp.Description("Capture window end, RFC 3339")),
		mcp.WithNumber("maxCloudCoverPct", mcp.Description("Maximum acceptable cloud cover percentage"), mcp.Min(0), mcp.Max(100)),
	}
}

func productTypeEnum() mcp.PropertyOption {
	return mcp.Enum("DAY", "NIGHT", "VIDEO", "SAR", "HYPERSPECTRAL", "MULTISPECTRAL", "STEREO")
}

func resolutionEnum() mcp.PropertyOption {
	return mcp.Enum("LOW", "MEDIUM", "HIGH", "VERY_HIGH", "SUPER_HIGH", "ULTRA_HIGH", "CM_30", "CM_50")
}

// Start serves MCP over stdio until the context ends.
func (s *Server) Start(ctx context.Context) error {
	log.Printf("starting skytask MCP server with %d tools", len(s.registry.List()))
	return mcpserver.ServeStdio(s.mcpServer)
}

// Shutdown logs the stop; the stdio transport ends with the process.
func (s *Server) Shutdown() {
	log.Println("skytask MCP server stopped")
}
