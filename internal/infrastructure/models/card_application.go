package models

import (
	"time"

	"github.com/google/uuid"
)

type CardApplication struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	FullName  string    `gorm:"type:varchar(100);not null"`
	CardType  string    `gorm:"type:varchar(20);not null"`
	Address   string    `gorm:"type:varchar(255);not null"`
	City      string    `gorm:"type:varchar(100);not null"`
	State     string    `gorm:"type:varchar(100)"`
	ZipCode   string    `gorm:"type:varchar(20);not null"`
	Country   string    `gorm:"type:varchar(2);not null"`
	Status    string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CardApplication) TableName() string { return "card_applications" }
