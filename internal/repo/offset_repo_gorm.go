package repo

import (
	"context"

	"gorm.io/gorm"

	"carbon-tracker/internal/domain"
)

type OffsetRepo struct{ db *gorm.DB }

func NewOffsetRepo(db *gorm.DB) *OffsetRepo { return &OffsetRepo{db: db} }

func (r *OffsetRepo) Create(ctx context.Context, o *domain.Offset) error {
	return translate(r.db.WithContext(ctx).Omit("BaselineCalculation", "ImprovedCalculation").Create(o).Error, "offset")
}

func (r *OffsetRepo) ListByUser(ctx context.Context, userID string) ([]domain.Offset, error) {
	out := []domain.Offset{}
	err := r.db.WithContext(ctx).
		Preload("BaselineCalculation").
		Preload("ImprovedCalculation").
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&out).Error
	return out, err
}

func (r *OffsetRepo) ListReferencing(ctx context.Context, calcIDs []string) ([]domain.Offset, error) {
	out := []domain.Offset{}
	q := r.db.WithContext(ctx).Model(&domain.Offset{})
	switch {
	case calcIDs == nil:
		q = q.Where("baseline_calculation_id IS NOT NULL OR improved_calculation_id IS NOT NULL")
	case len(calcIDs) == 0:
		return out, nil
	default:
		q = q.Where("baseline_calculation_id IN ? OR improved_calculation_id IN ?", calcIDs, calcIDs)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *OffsetRepo) TotalAmount(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&domain.Offset{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *OffsetRepo) TotalAmountByUser(ctx context.Context) (map[string]float64, error) {
	var rows []struct {
		UserID string
		Amount float64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Offset{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS amount").
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Amount
	}
	return out, nil
}

var (
	_ domain.UserRepository        = (*UserRepo)(nil)
	_ domain.CalculationRepository = (*CalculationRepo)(nil)
	_ domain.OffsetRepository      = (*OffsetRepo)(nil)
)
