package types

// BatchProgress is a point-in-time snapshot of a bulk operation. The
// orchestrator hands copies to progress callbacks, never the live value it is
// updating.
type BatchProgress struct {
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Pending    int    `json:"pending"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Current    string `json:"current,omitempty"`
}

// BatchError is the structured per-location failure captured inside a batch
// result.
type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult is the outcome for one location in a bulk operation. Exactly
// one exists per input location, in input order.
type BatchResult[T any] struct {
	LocationID   string      `json:"locationId"`
	LocationName string      `json:"locationName,omitempty"`
	Success      bool        `json:"success"`
	Value        T           `json:"value,omitempty"`
	Error        *BatchError `json:"error,omitempty"`
}

// FeasibilityOutcome is the per-location payload of a bulk feasibility check.
type FeasibilityOutcome struct {
	Feasible bool               `json:"feasible"`
	Result   *FeasibilityResult `json:"result,omitempty"`
}

// OrderOutcome is the per-location payload of a bulk order placement.
type OrderOutcome struct {
	Order *Order `json:"order,omitempty"`
}

// FeasibilitySummary aggregates a bulk feasibility run. Averages cover only
// the non-errored items.
type FeasibilitySummary struct {
	Feasible           int     `json:"feasible"`
	Infeasible         int     `json:"infeasible"`
	Errors             int     `json:"errors"`
	AvgScore           float64 `json:"avgScore"`
	AvgWeatherScore    float64 `json:"avgWeatherScore"`
	TotalOpportunities int     `json:"totalOpportunities"`
}

// OrderSummary aggregates a bulk order run.
type OrderSummary struct {
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	OrderIDs   []string `json:"orderIds"`
}
