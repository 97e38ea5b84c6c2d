package report

import (
	"sort"

	"carbon-tracker/internal/domain"
)

type ProvinceSummary struct {
	Name           string  `json:"name"`
	UserCount      int     `json:"userCount"`
	TotalEmissions float64 `json:"totalEmissions"` // tonnes
	TotalOffsets   float64 `json:"totalOffsets"`   // tonnes
}

type ProvinceAnalytics struct {
	Provinces      []ProvinceSummary `json:"provinces"`
	TotalEmissions float64           `json:"totalEmissions"` // tonnes
	TotalOffsets   float64           `json:"totalOffsets"`   // tonnes
}

// BuildProvinceAnalytics rolls per-user totals up to the users' provinces.
// Users without a province are not part of users and therefore drop out of
// both the per-province and the global figures.
func BuildProvinceAnalytics(
	users []domain.UserProvince,
	calcTotals []domain.UserCalculationTotals,
	recorded map[string]float64,
) ProvinceAnalytics {
	province := make(map[string]string, len(users))
	byName := map[string]*ProvinceSummary{}
	for _, u := range users {
		if u.Province == "" {
			continue
		}
		province[u.ID] = u.Province
		p := byName[u.Province]
		if p == nil {
			p = &ProvinceSummary{Name: u.Province}
			byName[u.Province] = p
		}
		p.UserCount++
	}

	emissions := map[string]float64{}
	offsets := map[string]float64{}
	for _, t := range calcTotals {
		name, ok := province[t.UserID]
		if !ok {
			continue
		}
		emissions[name] += t.Emissions
		offsets[name] += t.CarbonOffset
	}
	for uid, amount := range recorded {
		if name, ok := province[uid]; ok {
			offsets[name] += amount
		}
	}

	out := ProvinceAnalytics{Provinces: make([]ProvinceSummary, 0, len(byName))}
	for name, p := range byName {
		p.TotalEmissions = ToTonnes(emissions[name])
		p.TotalOffsets = ToTonnes(offsets[name])
		out.Provinces = append(out.Provinces, *p)
	}
	sort.Slice(out.Provinces, func(i, j int) bool {
		return provinceLess(out.Provinces[i].Name, out.Provinces[j].Name)
	})
	for _, p := range out.Provinces {
		out.TotalEmissions += p.TotalEmissions
		out.TotalOffsets += p.TotalOffsets
	}
	return out
}

func provinceLess(a, b string) bool {
	ra, rb := domain.ProvinceRank(a), domain.ProvinceRank(b)
	switch {
	case ra >= 0 && rb >= 0:
		return ra < rb
	case ra >= 0:
		return true
	case rb >= 0:
		return false
	}
	return a < b
}
