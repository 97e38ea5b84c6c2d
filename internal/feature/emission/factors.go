package emission

// Fuel types accepted by the cooking calculator.
const (
	FuelWood        = "wood"
	FuelCharcoal    = "charcoal"
	FuelLPG         = "lpg"
	FuelElectricity = "electricity"
)

// kg CO2e per cooking hour, except charcoal which is per kg burned.
var fuelFactors = map[string]float64{
	FuelWood:        1.5,
	FuelCharcoal:    2.2,
	FuelLPG:         0.8,
	FuelElectricity: 0.5,
}

const (
	MealPrepFactor        = 0.3 // kg per meal
	DurationImpactFactor  = 0.2 // kg per cooking hour
	CharcoalProcessFactor = 0.5 // kg per meal-hour when burning charcoal
	DaysPerMonth          = 30
)

// FuelFactor returns the emission coefficient for fuel.
func FuelFactor(fuel string) (float64, bool) {
	f, ok := fuelFactors[fuel]
	return f, ok
}
