package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type User struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string      `gorm:"type:varchar(100);not null"`
	Country      string      `gorm:"type:varchar(2);not null"`
	PasswordHash string      `gorm:"type:varchar(255);not null"`
	IsVerified   bool        `gorm:"not null;default:false"`
	Has2FA       bool        `gorm:"column:has_2fa;not null;default:false"`
	ReferralCode string      `gorm:"type:varchar(6);uniqueIndex;not null"`
	ReferredBy   null.String `gorm:"type:varchar(6)"`
	Role         string      `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }
