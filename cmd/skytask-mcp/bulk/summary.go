package bulk

import (
	"math"

	"github.com/skytask-mcp/skytask/pkg/types"
)

// SummarizeFeasibility reduces a bulk feasibility run to totals and
// averages. Errored items are excluded from the average denominators; an
// empty non-errored set yields averages of 0, not an error.
func SummarizeFeasibility(results []types.BatchResult[types.FeasibilityOutcome]) types.FeasibilitySummary {
	var summary types.FeasibilitySummary
	var scoreSum, weatherSum float64

	for _, r := range results {
		if !r.Success {
			summary.Errors++
			continue
		}
		if r.Value.Feasible {
			summary.Feasible++
		} else {
			summary.Infeasible++
		}
		if r.Value.Result != nil {
			scoreSum += r.Value.Result.OverallScore
			weatherSum += r.Value.Result.WeatherScore
			summary.TotalOpportunities += r.Value.Result.OpportunityCount()
		}
	}

	if n := summary.Feasible + summary.Infeasible; n > 0 {
		summary.AvgScore = round2(scoreSum / float64(n))
		summary.AvgWeatherScore = round2(weatherSum / float64(n))
	}
	return summary
}

// SummarizeOrders reduces a bulk order run to counts and the list of order
// identifiers obtained.
func SummarizeOrders(results []types.BatchResult[types.OrderOutcome]) types.OrderSummary {
	summary := types.OrderSummary{OrderIDs: make([]string, 0, len(results))}
	for _, r := range results {
		if !r.Success {
			summary.Failed++
			continue
		}
		summary.Successful++
		if r.Value.Order != nil {
			summary.OrderIDs = append(summary.OrderIDs, r.Value.Order.ID)
		}
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
