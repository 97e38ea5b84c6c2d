package report

import "carbon-tracker/internal/domain"

// ReconciledCalculation is a calculation together with the offsets recorded
// against it.
type ReconciledCalculation struct {
	domain.Calculation
	RecordedOffset float64 `json:"recordedOffset"`
	TotalOffset    float64 `json:"totalOffset"`
}

// RecordedOffsets sums, per calculation id, the amounts of the offsets that
// reference it. An offset naming the same calculation as both baseline and
// improved contributes once.
func RecordedOffsets(offsets []domain.Offset) map[string]float64 {
	out := map[string]float64{}
	for _, o := range offsets {
		var base string
		if o.BaselineCalculationID != nil {
			base = *o.BaselineCalculationID
			out[base] += o.Amount
		}
		if o.ImprovedCalculationID != nil && *o.ImprovedCalculationID != base {
			out[*o.ImprovedCalculationID] += o.Amount
		}
	}
	return out
}

func Reconcile(calcs []domain.Calculation, offsets []domain.Offset) []ReconciledCalculation {
	recorded := RecordedOffsets(offsets)
	out := make([]ReconciledCalculation, 0, len(calcs))
	for _, c := range calcs {
		r := recorded[c.ID]
		out = append(out, ReconciledCalculation{
			Calculation:    c,
			RecordedOffset: r,
			TotalOffset:    c.CarbonOffset + r,
		})
	}
	return out
}
