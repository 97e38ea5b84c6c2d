package report

import "carbon-tracker/internal/domain"

// ActiveWindowDays is the trailing window, in days, for counting a user as active.
const ActiveWindowDays = 30

type SystemStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	ActiveUsers       int64   `json:"activeUsers"`
	TotalCalculations int64   `json:"totalCalculations"`
	TotalEmissions    float64 `json:"totalEmissions"`
	TotalOffsets      float64 `json:"totalOffsets"`
}

// BuildStats combines offsets embedded in calculations with stand-alone
// offset records.
func BuildStats(users, active, calcs int64, totals domain.CalculationTotals, recorded float64) SystemStats {
	return SystemStats{
		TotalUsers:        users,
		ActiveUsers:       active,
		TotalCalculations: calcs,
		TotalEmissions:    totals.Emissions,
		TotalOffsets:      totals.CarbonOffset + recorded,
	}
}
