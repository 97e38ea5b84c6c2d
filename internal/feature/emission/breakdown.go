package emission

// Component labels, as shown to users.
const (
	LabelFuel           = "Fuel Consumption"
	LabelCharcoal       = "Charcoal Emissions (VERRA)"
	LabelMealPrep       = "Meal Preparation"
	LabelDurationImpact = "Cooking Duration Impact"
)

type Component struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Breakdown is an ordered list of labelled components (kg CO2e per 30-day
// month) and their sum.
type Breakdown struct {
	Type       string      `json:"type"`
	Components []Component `json:"components"`
	Total      float64     `json:"total"`
}

func newBreakdown(typ string, cs ...Component) Breakdown {
	b := Breakdown{Type: typ, Components: cs}
	for _, c := range cs {
		b.Total += c.Value
	}
	return b
}

// Get returns the value of the component with the given label.
func (b Breakdown) Get(label string) (float64, bool) {
	for _, c := range b.Components {
		if c.Label == label {
			return c.Value, true
		}
	}
	return 0, false
}
