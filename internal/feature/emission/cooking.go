package emission

import (
	"fmt"
	"math"

	"carbon-tracker/internal/domain"
)

type CookingInput struct {
	FuelType        string  `json:"fuelType"`
	CookingMeals    int     `json:"cookingMeals"`
	CookingDuration float64 `json:"cookingDuration"`
	CharcoalUsed    float64 `json:"charcoalUsed"`
}

func (in CookingInput) validate() error {
	factor, ok := FuelFactor(in.FuelType)
	switch {
	case !ok || factor <= 0:
		return fmt.Errorf("%w: unknown fuel type %q", domain.ErrInvalidInput, in.FuelType)
	case in.CookingMeals <= 0:
		return fmt.Errorf("%w: cookingMeals must be positive", domain.ErrInvalidInput)
	case !finite(in.CookingDuration) || in.CookingDuration <= 0:
		return fmt.Errorf("%w: cookingDuration must be positive", domain.ErrInvalidInput)
	case !finite(in.CharcoalUsed) || in.CharcoalUsed < 0:
		return fmt.Errorf("%w: charcoalUsed must not be negative", domain.ErrInvalidInput)
	case in.FuelType == FuelCharcoal && in.CharcoalUsed <= 0:
		return fmt.Errorf("%w: charcoalUsed is required for charcoal", domain.ErrInvalidInput)
	}
	return nil
}

// ComputeCooking projects one household's daily cooking activity onto a
// 30-day month.
func ComputeCooking(in CookingInput) (Breakdown, error) {
	if err := in.validate(); err != nil {
		return Breakdown{}, err
	}
	meals := float64(in.CookingMeals)

	var cs []Component
	if in.FuelType == FuelCharcoal {
		charcoal := in.CharcoalUsed * fuelFactors[FuelCharcoal] * DaysPerMonth
		process := meals * in.CookingDuration * CharcoalProcessFactor * DaysPerMonth
		cs = append(cs,
			Component{LabelFuel, process},
			Component{LabelCharcoal, charcoal},
		)
	} else {
		fuel := meals * in.CookingDuration * fuelFactors[in.FuelType] * DaysPerMonth
		cs = append(cs, Component{LabelFuel, fuel})
	}
	cs = append(cs,
		Component{LabelMealPrep, meals * MealPrepFactor * DaysPerMonth},
		Component{LabelDurationImpact, in.CookingDuration * DurationImpactFactor * DaysPerMonth},
	)
	return newBreakdown(domain.TypeCooking, cs...), nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
