package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"carbon-tracker/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "user "+u.Email)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	users := []domain.User{}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("created_at desc, id").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateColumn(ctx, id, "last_login", at)
}

func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *UserRepo) updateColumn(ctx context.Context, id, col string, v any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(col, v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("last_login >= ?", since).Count(&n).Error
	return n, err
}

func (r *UserRepo) ListWithProvince(ctx context.Context) ([]domain.UserProvince, error) {
	var out []domain.UserProvince
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("id, province").
		Where("province IS NOT NULL AND province <> ''").
		Scan(&out).Error
	return out, err
}

func (r *UserRepo) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&domain.Calculation{}).Select("id").Where("user_id = ?", id)
		if err := nullifyOffsetRefs(tx, owned); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Offset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Calculation{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return nil
	})
}

// nullifyOffsetRefs clears baseline/improved references pointing at the
// calculations selected by ids (a subquery or a slice of ids).
func nullifyOffsetRefs(tx *gorm.DB, ids any) error {
	if err := tx.Model(&domain.Offset{}).
		Where("baseline_calculation_id IN (?)", ids).
		Update("baseline_calculation_id", nil).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Offset{}).
		Where("improved_calculation_id IN (?)", ids).
		Update("improved_calculation_id", nil).Error
}
