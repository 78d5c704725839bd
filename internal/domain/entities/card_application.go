package entities

import (
	"time"

	"github.com/google/uuid"
)

type CardType string

const (
	CardTypeVirtual  CardType = "virtual"
	CardTypePhysical CardType = "physical"
)

type CardStatus string

const (
	CardStatusPending  CardStatus = "pending"
	CardStatusApproved CardStatus = "approved"
	CardStatusShipped  CardStatus = "shipped"
	CardStatusRejected CardStatus = "rejected"
)

// CanTransitionCard reports whether a card application may move between statuses.
func CanTransitionCard(from, to CardStatus) bool {
	switch from {
	case CardStatusPending:
		return to == CardStatusApproved || to == CardStatusRejected
	case CardStatusApproved:
		return to == CardStatusShipped
	}
	return false
}

// CardApplication is a user's request for a platform debit card
type CardApplication struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	FullName  string     `json:"fullName"`
	CardType  CardType   `json:"cardType"`
	Address   string     `json:"address"`
	City      string     `json:"city"`
	State     string     `json:"state"`
	ZipCode   string     `json:"zipCode"`
	Country   string     `json:"country"`
	Status    CardStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateCardApplicationInput struct {
	FullName string   `json:"fullName" binding:"required,min=2,max=100"`
	CardType CardType `json:"cardType" binding:"required,oneof=virtual physical"`
	Address  string   `json:"address" binding:"required,max=255"`
	City     string   `json:"city" binding:"required,max=100"`
	State    string   `json:"state" binding:"max=100"`
	ZipCode  string   `json:"zipCode" binding:"required,max=20"`
	Country  string   `json:"country" binding:"required,len=2,alpha"`
}

type UpdateCardStatusInput struct {
	Status CardStatus `json:"status" binding:"required,oneof=approved shipped rejected"`
}
