package types

import "time"

// ScoreNotComputed is the sentinel overall score the vendor reports while a
// feasibility check is still being evaluated.
const ScoreNotComputed = -1

// ProviderStatus is the per-provider evaluation state inside a feasibility
// check.
type ProviderStatus string

const (
	ProviderPending  ProviderStatus = "PENDING"
	ProviderComplete ProviderStatus = "COMPLETE"
	ProviderError    ProviderStatus = "ERROR"
)

// Terminal reports whether the provider has finished evaluating, successfully
// or not.
func (s ProviderStatus) Terminal() bool {
	return s == ProviderComplete || s == ProviderError
}

// FeasibilityRequest describes a capture feasibility question to the vendor.
type FeasibilityRequest struct {
	AOI              string      `json:"aoi"`
	ProductType      ProductType `json:"productType"`
	Resolution       Resolution  `json:"resolution"`
	WindowStart      time.Time   `json:"windowStart"`
	WindowEnd        time.Time   `json:"windowEnd"`
	MaxCloudCoverPct *float64    `json:"maxCloudCoverPct,omitempty"`
	RequiredProvider string      `json:"requiredProvider,omitempty"`
}

// Opportunity is one discrete candidate capture pass reported by a provider.
type Opportunity struct {
	Provider      string    `json:"provider"`
	WindowStart   time.Time `json:"windowStart"`
	WindowEnd     time.Time `json:"windowEnd"`
	CloudCoverPct float64   `json:"cloudCoverPct,omitempty"`
	OffNadirDeg   float64   `json:"offNadirDeg,omitempty"`
}

// ProviderFeasibility is the per-provider sub-result of a feasibility check.
type ProviderFeasibility struct {
	Provider      string         `json:"provider"`
	Status        ProviderStatus `json:"status"`
	Score         float64        `json:"score"`
	Opportunities []Opportunity  `json:"opportunities,omitempty"`
}

// FeasibilityResult is the vendor's answer to a feasibility check. The
// overall score is a vendor-computed composite in [0, 1], not a probability.
// The weather score is 1 for radar products, which are weather-independent.
type FeasibilityResult struct {
	ID           string                `json:"id"`
	Request      *FeasibilityRequest   `json:"request,omitempty"`
	ValidUntil   time.Time             `json:"validUntil"`
	OverallScore float64               `json:"overallScore"`
	WeatherScore float64               `json:"weatherScore"`
	Providers    []ProviderFeasibility `json:"providers,omitempty"`
}

// Complete reports whether the result carries enough signal to stop polling.
// Any one of three conditions is sufficient: all providers are terminal, at
// least one provider has reported opportunities, or the overall score has
// moved off the not-yet-computed sentinel. A single provider with usable
// opportunities is actionable even while its siblings are still pending.
func (r *FeasibilityResult) Complete() bool {
	if r == nil {
		return false
	}
	if r.OverallScore != ScoreNotComputed {
		return true
	}
	allTerminal := len(r.Providers) > 0
	for _, p := range r.Providers {
		if len(p.Opportunities) > 0 {
			return true
		}
		if !p.Status.Terminal() {
			allTerminal = false
		}
	}
	return allTerminal
}

// Feasible reports whether the result indicates a capture is worth pursuing:
// a positive overall score, or any provider with a positive score or a
// non-empty opportunity list. Kept deliberately consistent with Complete.
func (r *FeasibilityResult) Feasible() bool {
	if r == nil {
		return false
	}
	if r.OverallScore > 0 {
		return true
	}
	for _, p := range r.Providers {
		if p.Score > 0 || len(p.Opportunities) > 0 {
			return true
		}
	}
	return false
}

// OpportunityCount returns the total number of opportunities across all
// providers.
func (r *FeasibilityResult) OpportunityCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Providers {
		n += len(p.Opportunities)
	}
	return n
}
