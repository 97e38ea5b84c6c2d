package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/feature/emission"
	"carbon-tracker/internal/feature/report"
	"carbon-tracker/pkg/utils"
)

// TrackerService serves the caller's own calculations, offsets and dashboard.
// Every method is scoped to the principal's user id.
type TrackerService struct {
	engine  *emission.Engine
	calcs   domain.CalculationRepository
	offsets domain.OffsetRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewTrackerService(engine *emission.Engine, calcs domain.CalculationRepository, offsets domain.OffsetRepository, log *zap.Logger) *TrackerService {
	return &TrackerService{engine: engine, calcs: calcs, offsets: offsets, log: log, now: utcNow}
}

// Estimate runs the engine without persisting anything.
func (s *TrackerService) Estimate(typ string, a emission.Activity) (emission.Breakdown, error) {
	return s.engine.Compute(typ, a)
}

type CalculationInput struct {
	Type string
	// Emissions computed by the caller; nil asks the engine to compute them
	// from Activity.
	Emissions    *float64
	CarbonOffset float64
	Activity     emission.Activity
}

func nonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, name)
	}
	return nil
}

func (s *TrackerService) RecordCalculation(ctx context.Context, p auth.Principal, in CalculationInput) (*domain.Calculation, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	typ := domain.NormalizeType(in.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: type is required", domain.ErrInvalidInput)
	}
	if !s.engine.Supports(typ) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, in.Type)
	}
	if err := nonNegative("carbonOffset", in.CarbonOffset); err != nil {
		return nil, err
	}

	var emissions float64
	if in.Emissions == nil {
		b, err := s.engine.Compute(typ, in.Activity)
		if err != nil {
			return nil, err
		}
		emissions = b.Total
	} else {
		emissions = *in.Emissions
		if err := nonNegative("emissions", emissions); err != nil {
			return nil, err
		}
		if err := validateActivityFields(in.Activity.CookingInput); err != nil {
			return nil, err
		}
	}

	c := &domain.Calculation{
		ID:           utils.NewID(),
		UserID:       p.UserID,
		Type:         typ,
		Emissions:    emissions,
		CarbonOffset: in.CarbonOffset,
		CreatedAt:    s.now(),
	}
	applyCooking(c, in.Activity.CookingInput)
	if err := s.calcs.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("calculation recorded",
		zap.String("user_id", p.UserID),
		zap.String("calculation_id", c.ID),
		zap.String("type", typ),
		zap.Float64("emissions", emissions),
	)
	return c, nil
}

// validateActivityFields checks the optional activity fields stored next to
// caller-supplied emissions.
func validateActivityFields(in emission.CookingInput) error {
	if in.FuelType != "" {
		if _, ok := emission.FuelFactor(in.FuelType); !ok {
			return fmt.Errorf("%w: unknown fuel type %q", domain.ErrInvalidInput, in.FuelType)
		}
	}
	if in.CookingMeals < 0 {
		return fmt.Errorf("%w: cookingMeals must not be negative", domain.ErrInvalidInput)
	}
	if err := nonNegative("cookingDuration", in.CookingDuration); err != nil {
		return err
	}
	return nonNegative("charcoalUsed", in.CharcoalUsed)
}

func applyCooking(c *domain.Calculation, in emission.CookingInput) {
	if in.FuelType != "" {
		c.FuelType = &in.FuelType
	}
	if in.CookingMeals > 0 {
		c.CookingMeals = &in.CookingMeals
	}
	if in.CookingDuration > 0 {
		c.CookingDuration = &in.CookingDuration
	}
	if in.CharcoalUsed > 0 {
		c.CharcoalUsed = &in.CharcoalUsed
	}
}

func (s *TrackerService) ListCalculations(ctx context.Context, p auth.Principal) ([]domain.Calculation, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	return s.calcs.ListByUser(ctx, p.UserID)
}

// GetCalculation returns one of the caller's calculations. Someone else's
// calculation is reported as not found.
func (s *TrackerService) GetCalculation(ctx context.Context, p auth.Principal, id string) (*domain.Calculation, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	c, err := s.calcs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.UserID {
		return nil, fmt.Errorf("%w: calculation", domain.ErrNotFound)
	}
	return c, nil
}

func (s *TrackerService) DeleteCalculation(ctx context.Context, p auth.Principal, id string) error {
	if err := p.RequireUser(); err != nil {
		return err
	}
	if err := s.calcs.DeleteOwned(ctx, id, p.UserID); err != nil {
		return err
	}
	s.log.Info("calculation deleted", zap.String("user_id", p.UserID), zap.String("calculation_id", id))
	return nil
}

func (s *TrackerService) Dashboard(ctx context.Context, p auth.Principal) (*report.Dashboard, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	calcs, err := s.calcs.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	offsets, err := s.offsets.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	d := report.BuildDashboard(calcs, offsets)
	return &d, nil
}

type OffsetInput struct {
	Amount                float64
	BaselineCalculationID *string
	ImprovedCalculationID *string
	ProjectID             *string
	Details               json.RawMessage
}

func (s *TrackerService) RecordOffset(ctx context.Context, p auth.Principal, in OffsetInput) (*domain.Offset, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	if err := nonNegative("amount", in.Amount); err != nil {
		return nil, err
	}
	if len(in.Details) > 0 && !json.Valid(in.Details) {
		return nil, fmt.Errorf("%w: details must be JSON", domain.ErrInvalidInput)
	}
	for _, ref := range []*string{in.BaselineCalculationID, in.ImprovedCalculationID} {
		if ref == nil {
			continue
		}
		if _, err := s.GetCalculation(ctx, p, *ref); err != nil {
			return nil, err
		}
	}

	o := &domain.Offset{
		ID:                    utils.NewID(),
		UserID:                p.UserID,
		Amount:                in.Amount,
		BaselineCalculationID: in.BaselineCalculationID,
		ImprovedCalculationID: in.ImprovedCalculationID,
		ProjectID:             in.ProjectID,
		CreatedAt:             s.now(),
	}
	if len(in.Details) > 0 {
		o.Details = datatypes.JSON(in.Details)
	}
	if err := s.offsets.Create(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("offset recorded",
		zap.String("user_id", p.UserID),
		zap.String("offset_id", o.ID),
		zap.Float64("amount", o.Amount),
	)
	return o, nil
}

type ImprovementInput struct {
	BaselineCalculationID string
	Improved              emission.CookingInput
	ProjectID             *string
}

type ImprovementDetails struct {
	Method            string  `json:"method"`
	BaselineEmissions float64 `json:"baselineEmissions"`
	ImprovedEmissions float64 `json:"improvedEmissions"`
	BaselineFuelType  string  `json:"baselineFuelType,omitempty"`
	ImprovedFuelType  string  `json:"improvedFuelType"`
}

type ImprovementResult struct {
	Offset   *domain.Offset      `json:"offset"`
	Improved *domain.Calculation `json:"improved"`
}

// RecordImprovement stores the improved cooking setup as a calculation and
// credits the emissions it saves over the baseline as an offset.
func (s *TrackerService) RecordImprovement(ctx context.Context, p auth.Principal, in ImprovementInput) (*ImprovementResult, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	baseline, err := s.GetCalculation(ctx, p, in.BaselineCalculationID)
	if err != nil {
		return nil, err
	}
	b, err := s.engine.Compute(domain.TypeCooking, emission.Activity{CookingInput: in.Improved})
	if err != nil {
		return nil, err
	}

	improved, err := s.RecordCalculation(ctx, p, CalculationInput{
		Type:      domain.TypeCooking,
		Emissions: &b.Total,
		Activity:  emission.Activity{CookingInput: in.Improved},
	})
	if err != nil {
		return nil, err
	}

	details := ImprovementDetails{
		Method:            "fuel-switch",
		BaselineEmissions: baseline.Emissions,
		ImprovedEmissions: b.Total,
		ImprovedFuelType:  in.Improved.FuelType,
	}
	if baseline.FuelType != nil {
		details.BaselineFuelType = *baseline.FuelType
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	o, err := s.RecordOffset(ctx, p, OffsetInput{
		Amount:                emission.EstimateImprovement(baseline.Emissions, b.Total),
		BaselineCalculationID: &baseline.ID,
		ImprovedCalculationID: &improved.ID,
		ProjectID:             in.ProjectID,
		Details:               raw,
	})
	if err != nil {
		if derr := s.calcs.DeleteOwned(ctx, improved.ID, p.UserID); derr != nil {
			s.log.Warn("rollback improved calculation failed", zap.String("calculation_id", improved.ID), zap.Error(derr))
		}
		return nil, err
	}
	return &ImprovementResult{Offset: o, Improved: improved}, nil
}

// ListOffsets returns the caller's offsets with their baseline and improved
// calculations attached.
func (s *TrackerService) ListOffsets(ctx context.Context, p auth.Principal) ([]domain.Offset, error) {
	if err := p.RequireUser(); err != nil {
		return nil, err
	}
	return s.offsets.ListByUser(ctx, p.UserID)
}
