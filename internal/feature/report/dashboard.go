package report

import "carbon-tracker/internal/domain"

const RecentLimit = 5

// ToTonnes converts kg CO2e to tonnes.
func ToTonnes(kg float64) float64 { return kg / 1000 }

type TypeSummary struct {
	Count          int     `json:"count"`
	TotalEmissions float64 `json:"totalEmissions"`
	TotalOffset    float64 `json:"totalOffset"`
}

// Dashboard summarises one user's activity. Totals are kg CO2e; the *Tonnes
// fields carry the same figures divided by 1000.
type Dashboard struct {
	TotalEmissions        float64 `json:"totalEmissions"`
	TotalCalculatedOffset float64 `json:"totalCalculatedOffset"`
	TotalRecordedOffset   float64 `json:"totalRecordedOffset"`
	TotalOffset           float64 `json:"totalOffset"`
	NetImpact             float64 `json:"netImpact"`
	AverageEmissions      float64 `json:"averageEmissions"`
	CalculationCount      int     `json:"calculationCount"`

	TotalEmissionsTonnes        float64 `json:"totalEmissionsTonnes"`
	TotalCalculatedOffsetTonnes float64 `json:"totalCalculatedOffsetTonnes"`
	TotalRecordedOffsetTonnes   float64 `json:"totalRecordedOffsetTonnes"`
	TotalOffsetTonnes           float64 `json:"totalOffsetTonnes"`
	NetImpactTonnes             float64 `json:"netImpactTonnes"`
	AverageEmissionsTonnes      float64 `json:"averageEmissionsTonnes"`

	RecentCalculations []domain.Calculation    `json:"recentCalculations"`
	ByType             map[string]*TypeSummary `json:"byType"`
}

// BuildDashboard expects calcs ordered newest first.
func BuildDashboard(calcs []domain.Calculation, offsets []domain.Offset) Dashboard {
	d := Dashboard{
		CalculationCount: len(calcs),
		ByType:           map[string]*TypeSummary{},
	}
	for _, c := range calcs {
		d.TotalEmissions += c.Emissions
		d.TotalCalculatedOffset += c.CarbonOffset

		t := domain.NormalizeType(c.Type)
		s := d.ByType[t]
		if s == nil {
			s = &TypeSummary{}
			d.ByType[t] = s
		}
		s.Count++
		s.TotalEmissions += c.Emissions
		s.TotalOffset += c.CarbonOffset
	}
	for _, o := range offsets {
		d.TotalRecordedOffset += o.Amount
	}
	d.TotalOffset = d.TotalCalculatedOffset + d.TotalRecordedOffset
	d.NetImpact = d.TotalEmissions - d.TotalOffset
	if len(calcs) > 0 {
		d.AverageEmissions = d.TotalEmissions / float64(len(calcs))
	}

	d.TotalEmissionsTonnes = ToTonnes(d.TotalEmissions)
	d.TotalCalculatedOffsetTonnes = ToTonnes(d.TotalCalculatedOffset)
	d.TotalRecordedOffsetTonnes = ToTonnes(d.TotalRecordedOffset)
	d.TotalOffsetTonnes = ToTonnes(d.TotalOffset)
	d.NetImpactTonnes = ToTonnes(d.NetImpact)
	d.AverageEmissionsTonnes = ToTonnes(d.AverageEmissions)

	n := min(RecentLimit, len(calcs))
	d.RecentCalculations = append([]domain.Calculation{}, calcs[:n]...)
	return d
}
