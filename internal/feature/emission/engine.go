package emission

import (
	"fmt"
	"sort"

	"carbon-tracker/internal/domain"
)

// Activity carries the user-supplied fields of any activity type. Each
// calculator reads the fields it understands.
type Activity struct {
	CookingInput
}

// Calculator computes the breakdown for one activity type.
type Calculator func(Activity) (Breakdown, error)

type Engine struct {
	calcs map[string]Calculator
}

// NewEngine returns an engine with the built-in calculators registered.
func NewEngine() *Engine {
	e := &Engine{calcs: map[string]Calculator{}}
	e.Register(domain.TypeCooking, func(a Activity) (Breakdown, error) {
		return ComputeCooking(a.CookingInput)
	})
	return e
}

// Register adds or replaces the calculator for typ.
func (e *Engine) Register(typ string, c Calculator) {
	e.calcs[domain.NormalizeType(typ)] = c
}

func (e *Engine) Supports(typ string) bool {
	_, ok := e.calcs[domain.NormalizeType(typ)]
	return ok
}

// Types lists registered activity types in sorted order.
func (e *Engine) Types() []string {
	out := make([]string, 0, len(e.calcs))
	for t := range e.calcs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) Compute(typ string, a Activity) (Breakdown, error) {
	t := domain.NormalizeType(typ)
	c, ok := e.calcs[t]
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, typ)
	}
	b, err := c(a)
	if err != nil {
		return Breakdown{}, err
	}
	b.Type = t
	return b, nil
}

// EstimateImprovement is the offset credited for moving from a baseline to an
// improved setup. It never goes below zero.
func EstimateImprovement(baseline, improved float64) float64 {
	if d := baseline - improved; d > 0 {
		return d
	}
	return 0
}
