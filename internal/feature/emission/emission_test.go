package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-tracker/internal/domain"
)

func TestComputeCooking_Wood(t *testing.T) {
	b, err := ComputeCooking(CookingInput{FuelType: FuelWood, CookingMeals: 4, CookingDuration: 4.5})
	require.NoError(t, err)

	fuel, ok := b.Get(LabelFuel)
	require.True(t, ok)
	assert.InDelta(t, 810, fuel, 1e-9)
	meal, _ := b.Get(LabelMealPrep)
	assert.InDelta(t, 36, meal, 1e-9)
	dur, _ := b.Get(LabelDurationImpact)
	assert.InDelta(t, 27, dur, 1e-9)
	_, ok = b.Get(LabelCharcoal)
	assert.False(t, ok)
	assert.InDelta(t, 873, b.Total, 1e-9)
	assert.Equal(t, domain.TypeCooking, b.Type)
}

func TestComputeCooking_Charcoal(t *testing.T) {
	b, err := ComputeCooking(CookingInput{FuelType: FuelCharcoal, CookingMeals: 4, CookingDuration: 4.5, CharcoalUsed: 2.5})
	require.NoError(t, err)

	charcoal, ok := b.Get(LabelCharcoal)
	require.True(t, ok)
	assert.InDelta(t, 165, charcoal, 1e-9)
	fuel, _ := b.Get(LabelFuel)
	assert.InDelta(t, 270, fuel, 1e-9)
	assert.InDelta(t, 498, b.Total, 1e-9)
}

func TestComputeCooking_InvalidInput(t *testing.T) {
	cases := map[string]CookingInput{
		"charcoal without amount": {FuelType: FuelCharcoal, CookingMeals: 1, CookingDuration: 1},
		"unknown fuel":            {FuelType: "unknown", CookingMeals: 1, CookingDuration: 1},
		"empty fuel":              {CookingMeals: 1, CookingDuration: 1},
		"zero meals":              {FuelType: FuelLPG, CookingDuration: 1},
		"negative meals":          {FuelType: FuelLPG, CookingMeals: -2, CookingDuration: 1},
		"zero duration":           {FuelType: FuelLPG, CookingMeals: 1},
		"negative charcoal":       {FuelType: FuelWood, CookingMeals: 1, CookingDuration: 1, CharcoalUsed: -1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeCooking(in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func validInputs() []CookingInput {
	var out []CookingInput
	for _, fuel := range []string{FuelWood, FuelCharcoal, FuelLPG, FuelElectricity} {
		for _, meals := range []int{1, 2, 3, 7} {
			for _, dur := range []float64{0.25, 1, 2.75, 4.5, 12} {
				out = append(out, CookingInput{FuelType: fuel, CookingMeals: meals, CookingDuration: dur, CharcoalUsed: 1.3})
			}
		}
	}
	return out
}

func TestComputeCooking_Properties(t *testing.T) {
	for _, in := range validInputs() {
		a, err := ComputeCooking(in)
		require.NoError(t, err)
		b, err := ComputeCooking(in)
		require.NoError(t, err)

		assert.Equal(t, a, b, "deterministic for %+v", in)

		var sum float64
		for _, c := range a.Components {
			assert.GreaterOrEqual(t, c.Value, 0.0, "%s for %+v", c.Label, in)
			sum += c.Value
		}
		assert.Equal(t, sum, a.Total, "additive for %+v", in)
		assert.GreaterOrEqual(t, a.Total, 0.0)

		_, hasCharcoal := a.Get(LabelCharcoal)
		assert.Equal(t, in.FuelType == FuelCharcoal, hasCharcoal, "charcoal component for %+v", in)
	}
}

func TestEngine_Compute(t *testing.T) {
	e := NewEngine()

	b, err := e.Compute(" cooking ", Activity{CookingInput{FuelType: FuelLPG, CookingMeals: 2, CookingDuration: 1}})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeCooking, b.Type)
	assert.InDelta(t, 2*1*0.8*30+2*0.3*30+1*0.2*30, b.Total, 1e-9)

	_, err = e.Compute("afforestation", Activity{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	e.Register("water", func(Activity) (Breakdown, error) {
		return newBreakdown("", Component{"Pumping", 4}), nil
	})
	assert.True(t, e.Supports("WATER"))
	assert.Equal(t, []string{"COOKING", "WATER"}, e.Types())
	b, err = e.Compute("water", Activity{})
	require.NoError(t, err)
	assert.Equal(t, "WATER", b.Type)
	assert.Equal(t, 4.0, b.Total)
}

func TestEstimateImprovement(t *testing.T) {
	assert.Equal(t, 375.0, EstimateImprovement(873, 498))
	assert.Equal(t, 0.0, EstimateImprovement(100, 250))
	assert.Equal(t, 0.0, EstimateImprovement(0, 0))
}
