package schemas

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
	"github.com/skytask-mcp/skytask/pkg/types"
)

// validate is shared across all boundary checks. The validator is stateless
// after construction.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// "wkt" accepts the well-known-text geometries the vendor supports,
	// POINT and POLYGON. Anything else must be rejected here, before a
	// malformed AOI can travel to the network.
	_ = v.RegisterValidation("wkt", func(fl validator.FieldLevel) bool {
		_, err := types.ParseAOI(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate runs struct-tag validation and converts failures into an
// INVALID_REQUEST classification with per-field details. Nothing reaches the
// transport client without passing here first.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	apiErr := errors.New(errors.CodeInvalidRequest, "request validation failed")
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			apiErr.WithDetail(fe.Field(), fmt.Sprintf("failed %q constraint", fe.Tag()))
		}
	}
	return apiErr
}

// SearchArchivesRequest is the typed input of the search_archives tool.
type SearchArchivesRequest struct {
	AOI              string    `json:"aoi" validate:"required,wkt"`
	FromDate         time.Time `json:"fromDate" validate:"required"`
	ToDate           time.Time `json:"toDate" validate:"required,gtfield=FromDate"`
	ProductTypes     []string  `json:"productTypes,omitempty" validate:"omitempty,dive,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	MinResolution    string    `json:"minResolution,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH VERY_HIGH SUPER_HIGH ULTRA_HIGH CM_30 CM_50"`
	MaxCloudCoverPct *float64  `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ToDomain converts the validated request into the client value type.
func (r *SearchArchivesRequest) ToDomain() *types.ArchiveSearchRequest {
	out := &types.ArchiveSearchRequest{
		AOI:              r.AOI,
		FromDate:         r.FromDate,
		ToDate:           r.ToDate,
		MinResolution:    types.Resolution(r.MinResolution),
		MaxCloudCoverPct: r.MaxCloudCoverPct,
	}
	for _, p := range r.ProductTypes {
		out.ProductTypes = append(out.ProductTypes, types.ProductType(p))
	}
	return out
}

// GetArchiveRequest is the typed input of the get_archive tool.
type GetArchiveRequest struct {
	ArchiveID string `json:"archiveId" validate:"required"`
}

// GetPricingRequest is the typed input of the get_pricing tool.
type GetPricingRequest struct {
	AOI string `json:"aoi" validate:"required,wkt"`
}

// CheckFeasibilityRequest is the typed input of the check_feasibility tool.
type CheckFeasibilityRequest struct {
	AOI              string    `json:"aoi" validate:"required,wkt"`
	ProductType      string    `json:"productType" validate:"required,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	Resolution       string    `json:"resolution" validate:"required,oneof=LOW MEDIUM HIGH VERY_HIGH SUPER_HIGH ULTRA_HIGH CM_30 CM_50"`
	WindowStart      time.Time `json:"windowStart" validate:"required"`
	WindowEnd        time.Time `json:"windowEnd" validate:"required,gtfield=WindowStart"`
	MaxCloudCoverPct *float64  `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	RequiredProvider string    `json:"requiredProvider,omitempty"`
	Wait             *bool     `json:"wait,omitempty"`
}

// ToDomain converts the validated request into the client value type.
func (r *CheckFeasibilityRequest) ToDomain() *types.FeasibilityRequest {
	return &types.FeasibilityRequest{
		AOI:              r.AOI,
		ProductType:      types.ProductType(r.ProductType),
		Resolution:       types.Resolution(r.Resolution),
		WindowStart:      r.WindowStart,
		WindowEnd:        r.WindowEnd,
		MaxCloudCoverPct: r.MaxCloudCoverPct,
		RequiredProvider: r.RequiredProvider,
	}
}

// GetFeasibilityStatusRequest is the typed input of the
// get_feasibility_status tool.
type GetFeasibilityStatusRequest struct {
	CheckID string `json:"checkId" validate:"required"`
}

// PlaceArchiveOrderRequest is the typed input of the place_archive_order
// tool.
type PlaceArchiveOrderRequest struct {
	ArchiveID string `json:"archiveId" validate:"required"`
	AOI       string `json:"aoi" validate:"required,wkt"`
}

// PlaceTaskingOrderRequest is the typed input of the place_tasking_order
// tool.
type PlaceTaskingOrderRequest struct {
	AOI              string    `json:"aoi" validate:"required,wkt"`
	ProductType      string    `json:"productType" validate:"required,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	Resolution       string    `json:"resolution" validate:"required,oneof=LOW MEDIUM HIGH VERY_HIGH SUPER_HIGH ULTRA_HIGH CM_30 CM_50"`
	WindowStart      time.Time `json:"windowStart" validate:"required"`
	WindowEnd        time.Time `json:"windowEnd" validate:"required,gtfield=WindowStart"`
	MaxCloudCoverPct *float64  `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ToDomain converts the validated request into the client value type.
func (r *PlaceTaskingOrderRequest) ToDomain() *types.TaskingOrderRequest {
	return &types.TaskingOrderRequest{
		AOI:              r.AOI,
		ProductType:      types.ProductType(r.ProductType),
		Resolution:       types.Resolution(r.Resolution),
		WindowStart:      r.WindowStart,
		WindowEnd:        r.WindowEnd,
		MaxCloudCoverPct: r.MaxCloudCoverPct,
	}
}

// PollOrderStatusRequest is the typed input of the poll_order_status tool.
// The bounds mirror the client's polling limits.
type PollOrderStatusRequest struct {
	OrderID         string `json:"orderId" validate:"required"`
	MaxAttempts     int    `json:"maxAttempts" validate:"min=1,max=100"`
	IntervalSeconds int    `json:"intervalSeconds" validate:"min=5,max=300"`
}

// LocationInput is one batch entry as supplied by the tool caller.
type LocationInput struct {
	ID       string         `json:"id" validate:"required"`
	Name     string         `json:"name,omitempty"`
	AOI      string         `json:"aoi" validate:"required,wkt"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ToDomain converts the input into a domain location.
func (l *LocationInput) ToDomain() types.Location {
	return types.Location{
		ID:       l.ID,
		Name:     l.Name,
		AOI:      l.AOI,
		Metadata: l.Metadata,
	}
}

// BulkFeasibilityRequest is the typed input of the bulk_check_feasibility
// tool.
type BulkFeasibilityRequest struct {
	Locations        []LocationInput `json:"locations" validate:"required,min=1,max=100,dive"`
	ProductType      string          `json:"productType" validate:"required,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	Resolution       string          `json:"resolution" validate:"required,oneof=LOW MEDIUM HIGH VERY_HIGH SUPER_HIGH ULTRA_HIGH CM_30 CM_50"`
	WindowStart      time.Time       `json:"windowStart" validate:"required"`
	WindowEnd        time.Time       `json:"windowEnd" validate:"required,gtfield=WindowStart"`
	MaxCloudCoverPct *float64        `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	RequiredProvider string          `json:"requiredProvider,omitempty"`
}

// BulkOrderRequest is the typed input of the bulk_place_orders tool. The
// confirmation token is mandatory because bulk ordering spends real money.
type BulkOrderRequest struct {
	Locations         []LocationInput `json:"locations" validate:"required,min=1,max=100,dive"`
	ProductType       string          `json:"productType" validate:"required,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	Resolution        string          `json:"resolution" validate:"required,oneof=LOW MEDIUM HIGH VERY_HIGH SUPER_HIGH ULTRA_HIGH CM_30 CM_50"`
	WindowStart       time.Time       `json:"windowStart" validate:"required"`
	WindowEnd         time.Time       `json:"windowEnd" validate:"required,gtfield=WindowStart"`
	MaxCloudCoverPct  *float64        `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	ConfirmationToken string          `json:"confirmationToken" validate:"required"`
}

// CreateMonitorRequest is the typed input of the create_monitor tool.
type CreateMonitorRequest struct {
	Name             string   `json:"name" validate:"required"`
	AOI              string   `json:"aoi" validate:"required,wkt"`
	WebhookURL       string   `json:"webhookUrl" validate:"required,url"`
	ProductTypes     []string `json:"productTypes,omitempty" validate:"omitempty,dive,oneof=DAY NIGHT VIDEO SAR HYPERSPECTRAL MULTISPECTRAL STEREO"`
	MaxCloudCoverPct *float64 `json:"maxCloudCoverPct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ToDomain converts the validated request into the client value type.
func (r *CreateMonitorRequest) ToDomain() *types.MonitorRequest {
	out := &types.MonitorRequest{
		Name:             r.Name,
		AOI:              r.AOI,
		WebhookURL:       r.WebhookURL,
		MaxCloudCoverPct: r.MaxCloudCoverPct,
	}
	for _, p := range r.ProductTypes {
		out.ProductTypes = append(out.ProductTypes, types.ProductType(p))
	}
	return out
}

// MonitorIDRequest is the typed input of the get_monitor and delete_monitor
// tools.
type MonitorIDRequest struct {
	MonitorID string `json:"monitorId" validate:"required"`
}
