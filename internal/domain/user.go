package domain

import (
	"context"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string     `gorm:"size:64;not null" json:"name"`
	PasswordHash string     `gorm:"size:191;not null" json:"-"`
	Organization *string    `gorm:"size:128" json:"organization"`
	Province     *string    `gorm:"size:64;index" json:"province"`
	Role         string     `gorm:"size:16;not null;default:USER" json:"role"` // "USER"/"ADMIN"
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserProvince is the (id, province) projection used by province analytics.
type UserProvince struct {
	ID       string
	Province string
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateRole(ctx context.Context, id, role string) error
	Count(ctx context.Context) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
	ListWithProvince(ctx context.Context) ([]UserProvince, error)
	// DeleteCascade removes the user's offsets and calculations together with
	// the user row in one transaction.
	DeleteCascade(ctx context.Context, id string) error
}

func IsValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }
