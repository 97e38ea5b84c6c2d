package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type Offset struct {
	ID     string  `gorm:"primaryKey;size:36" json:"id"`
	UserID string  `gorm:"size:36;not null;index" json:"userId"`
	Amount float64 `gorm:"not null;default:0" json:"amount"`

	BaselineCalculationID *string      `gorm:"size:36;index" json:"baselineCalculationId"`
	BaselineCalculation   *Calculation `gorm:"foreignKey:BaselineCalculationID;constraint:OnDelete:SET NULL" json:"baselineCalculation,omitempty"`
	ImprovedCalculationID *string      `gorm:"size:36;index" json:"improvedCalculationId"`
	ImprovedCalculation   *Calculation `gorm:"foreignKey:ImprovedCalculationID;constraint:OnDelete:SET NULL" json:"improvedCalculation,omitempty"`

	ProjectID *string        `gorm:"size:64" json:"projectId"`
	Details   datatypes.JSON `json:"details,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Offset) TableName() string { return "offsets" }

// References reports whether the offset points at calculation id as its
// baseline or improved side.
func (o *Offset) References(id string) bool {
	return (o.BaselineCalculationID != nil && *o.BaselineCalculationID == id) ||
		(o.ImprovedCalculationID != nil && *o.ImprovedCalculationID == id)
}

type OffsetRepository interface {
	Create(ctx context.Context, o *Offset) error
	// ListByUser returns the user's offsets, newest first, with the baseline
	// and improved calculations preloaded.
	ListByUser(ctx context.Context, userID string) ([]Offset, error)
	// ListReferencing returns every offset whose baseline or improved id is in
	// calcIDs. A nil slice means every offset that references any calculation.
	ListReferencing(ctx context.Context, calcIDs []string) ([]Offset, error)
	TotalAmount(ctx context.Context) (float64, error)
	TotalAmountByUser(ctx context.Context) (map[string]float64, error)
}

// Models lists the persisted entities in migration order.
func Models() []any { return []any{&User{}, &Calculation{}, &Offset{}} }
