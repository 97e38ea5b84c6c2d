package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"carbon-tracker/internal/domain"
)

const newestFirst = "created_at DESC, id DESC"

type CalculationRepo struct{ db *gorm.DB }

func NewCalculationRepo(db *gorm.DB) *CalculationRepo { return &CalculationRepo{db: db} }

func (r *CalculationRepo) Create(ctx context.Context, c *domain.Calculation) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(c).Error, "calculation")
}

func (r *CalculationRepo) Get(ctx context.Context, id string) (*domain.Calculation, error) {
	var c domain.Calculation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "calculation")
	}
	return &c, nil
}

func (r *CalculationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Calculation, error) {
	out := []domain.Calculation{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(newestFirst).Find(&out).Error
	return out, err
}

func (r *CalculationRepo) DeleteOwned(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Calculation{}).Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: calculation", domain.ErrNotFound)
		}
		if err := nullifyOffsetRefs(tx, []string{id}); err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Calculation{}).Error
	})
}

func (r *CalculationRepo) ListRecent(ctx context.Context, limit int) ([]domain.Calculation, error) {
	out := []domain.Calculation{}
	q := r.db.WithContext(ctx).Preload("User").Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *CalculationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Calculation{}).Count(&n).Error
	return n, err
}

func (r *CalculationRepo) CountByUser(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		UserID string
		N      int64
	}
	if err := r.db.WithContext(ctx).Model(&domain.Calculation{}).
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.N
	}
	return out, nil
}

func (r *CalculationRepo) Totals(ctx context.Context) (domain.CalculationTotals, error) {
	var t domain.CalculationTotals
	err := r.db.WithContext(ctx).Model(&domain.Calculation{}).
		Select("COALESCE(SUM(emissions), 0) AS emissions, COALESCE(SUM(carbon_offset), 0) AS carbon_offset").
		Scan(&t).Error
	return t, err
}

func (r *CalculationRepo) TotalsByUser(ctx context.Context) ([]domain.UserCalculationTotals, error) {
	var out []domain.UserCalculationTotals
	err := r.db.WithContext(ctx).Model(&domain.Calculation{}).
		Select("user_id, COALESCE(SUM(emissions), 0) AS emissions, COALESCE(SUM(carbon_offset), 0) AS carbon_offset").
		Group("user_id").
		Scan(&out).Error
	return out, err
}
