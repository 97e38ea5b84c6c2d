package domain

import (
	"context"
	"strings"
	"time"
)

const (
	TypeCooking = "COOKING"
)

type Calculation struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	UserID       string  `gorm:"size:36;not null;index" json:"userId"`
	User         *User   `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Type         string  `gorm:"size:32;not null" json:"type"`
	Emissions    float64 `gorm:"not null;default:0" json:"emissions"`
	CarbonOffset float64 `gorm:"not null;default:0" json:"carbonOffset"`

	CookingDuration *float64 `json:"cookingDuration"`
	CookingMeals    *int     `json:"cookingMeals"`
	FuelType        *string  `gorm:"size:16" json:"fuelType"`
	CharcoalUsed    *float64 `json:"charcoalUsed"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Calculation) TableName() string { return "calculations" }

// NormalizeType returns the canonical stored form of a calculation type.
func NormalizeType(t string) string { return strings.ToUpper(strings.TrimSpace(t)) }

// CalculationTotals is a sum of emissions and embedded offsets, in kg CO2e.
type CalculationTotals struct {
	Emissions    float64
	CarbonOffset float64
}

type UserCalculationTotals struct {
	UserID       string
	Emissions    float64
	CarbonOffset float64
}

type CalculationRepository interface {
	Create(ctx context.Context, c *Calculation) error
	Get(ctx context.Context, id string) (*Calculation, error)
	// ListByUser returns the user's calculations, newest first.
	ListByUser(ctx context.Context, userID string) ([]Calculation, error)
	// DeleteOwned deletes the calculation only when it belongs to userID.
	// A calculation owned by someone else is reported as ErrNotFound.
	DeleteOwned(ctx context.Context, id, userID string) error
	// ListRecent returns calculations newest first with User preloaded.
	// limit <= 0 returns all of them.
	ListRecent(ctx context.Context, limit int) ([]Calculation, error)
	Count(ctx context.Context) (int64, error)
	CountByUser(ctx context.Context) (map[string]int64, error)
	Totals(ctx context.Context) (CalculationTotals, error)
	TotalsByUser(ctx context.Context) ([]UserCalculationTotals, error)
}
