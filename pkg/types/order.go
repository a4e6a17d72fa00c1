package types

import "time"

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderFailed     OrderStatus = "FAILED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Terminal reports whether the order has reached a final state.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

// ArchiveOrderRequest orders delivery of already-captured imagery.
type ArchiveOrderRequest struct {
	ArchiveID string `json:"archiveId"`
	AOI       string `json:"aoi"`
}

// TaskingOrderRequest schedules a new capture.
type TaskingOrderRequest struct {
	AOI              string      `json:"aoi"`
	ProductType      ProductType `json:"productType"`
	Resolution       Resolution  `json:"resolution"`
	WindowStart      time.Time   `json:"windowStart"`
	WindowEnd        time.Time   `json:"windowEnd"`
	MaxCloudCoverPct *float64    `json:"maxCloudCoverPct,omitempty"`
	RequiredProvider string      `json:"requiredProvider,omitempty"`
}

// Deliverable is one downloadable artifact attached to a completed order.
type Deliverable struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

// Order is a placed archive or tasking order.
type Order struct {
	ID           string        `json:"id"`
	Status       OrderStatus   `json:"status"`
	ProductType  ProductType   `json:"productType,omitempty"`
	AOI          string        `json:"aoi,omitempty"`
	Price        float64       `json:"price"`
	Currency     string        `json:"currency,omitempty"`
	ProgressPct  float64       `json:"progressPct,omitempty"`
	CreatedAt    time.Time     `json:"createdAt,omitempty"`
	Deliverables []Deliverable `json:"deliverables,omitempty"`
}

// OrderList is a page of orders.
type OrderList struct {
	Orders   []Order `json:"orders"`
	NextPage string  `json:"nextPage,omitempty"`
}

// Archive is a single catalog entry of already-captured imagery.
type Archive struct {
	ID            string      `json:"id"`
	Provider      string      `json:"provider"`
	ProductType   ProductType `json:"productType"`
	Resolution    Resolution  `json:"resolution"`
	CaptureDate   time.Time   `json:"captureDate"`
	CloudCoverPct float64     `json:"cloudCoverPct"`
	Price         float64     `json:"price"`
	Currency      string      `json:"currency,omitempty"`
	ThumbnailURL  string      `json:"thumbnailUrl,omitempty"`
}

// ArchiveSearchRequest filters the vendor imagery catalog.
type ArchiveSearchRequest struct {
	AOI              string        `json:"aoi"`
	FromDate         time.Time     `json:"fromDate"`
	ToDate           time.Time     `json:"toDate"`
	ProductTypes     []ProductType `json:"productTypes,omitempty"`
	MinResolution    Resolution    `json:"minResolution,omitempty"`
	MaxCloudCoverPct *float64      `json:"maxCloudCoverPct,omitempty"`
}

// ArchiveSearchResponse is a page of catalog matches.
type ArchiveSearchResponse struct {
	Archives []Archive `json:"archives"`
	NextPage string    `json:"nextPage,omitempty"`
}

// PricingRequest asks for the price options covering an area of interest.
type PricingRequest struct {
	AOI string `json:"aoi"`
}

// PriceOption is one product/resolution price quote for an area.
type PriceOption struct {
	ProductType ProductType `json:"productType"`
	Resolution  Resolution  `json:"resolution"`
	Price       float64     `json:"price"`
	Currency    string      `json:"currency"`
}

// MonitorRequest creates a standing subscription that fires a webhook when
// new imagery becomes available for an area.
type MonitorRequest struct {
	Name             string        `json:"name"`
	AOI              string        `json:"aoi"`
	WebhookURL       string        `json:"webhookUrl"`
	ProductTypes     []ProductType `json:"productTypes,omitempty"`
	MaxCloudCoverPct *float64      `json:"maxCloudCoverPct,omitempty"`
}

// Monitor is an active imagery subscription.
type Monitor struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	AOI              string        `json:"aoi"`
	WebhookURL       string        `json:"webhookUrl"`
	ProductTypes     []ProductType `json:"productTypes,omitempty"`
	MaxCloudCoverPct *float64      `json:"maxCloudCoverPct,omitempty"`
	Active           bool          `json:"active"`
	CreatedAt        time.Time     `json:"createdAt,omitempty"`
}
