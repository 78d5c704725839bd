package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	domainerrors "cryptovest.backend/internal/domain/errors"
)

// EntryKind is the kind of money movement a ledger entry records
type EntryKind string

const (
	EntryKindDeposit  EntryKind = "deposit"
	EntryKindWithdraw EntryKind = "withdraw"
	EntryKindProfit   EntryKind = "profit"
	EntryKindBonus    EntryKind = "bonus"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindDeposit, EntryKindWithdraw, EntryKindProfit, EntryKindBonus:
		return true
	}
	return false
}

// EntryStatus represents the lifecycle status of a ledger entry
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusPending, EntryStatusCompleted, EntryStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s EntryStatus) Terminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusFailed
}

// CanTransition reports whether an entry may move from one status to another.
// Only pending entries move, and only to a terminal status.
func CanTransition(from, to EntryStatus) bool {
	return from == EntryStatusPending && to.Terminal()
}

// Deposit and withdrawal methods accepted from users.
const (
	MethodBitcoin  = "bitcoin"
	MethodEthereum = "ethereum"
	MethodUSDT     = "usdt"
	MethodUSDC     = "usdc"
	MethodStripe   = "stripe"
	MethodSystem   = "system"
	MethodCrypto   = "crypto"
)

// CryptoMethods lists the deposit methods users can pick.
var CryptoMethods = []string{MethodBitcoin, MethodEthereum, MethodUSDT, MethodUSDC}

// IsEVMMethod reports whether funds for the method settle on an ethereum-style address.
func IsEVMMethod(method string) bool {
	switch method {
	case MethodEthereum, MethodUSDT, MethodUSDC:
		return true
	}
	return false
}

// LedgerEntry is an immutable money-movement record. Only Status (and UpdatedAt) change.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Kind        EntryKind       `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Status      EntryStatus     `json:"status"`
	ExternalRef null.String     `json:"externalRef"`
	ReceiptRef  null.String     `json:"receiptRef"`
	Address     null.String     `json:"address"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Wellformed reports whether the entry can take part in balance arithmetic.
func (e *LedgerEntry) Wellformed() bool {
	return e.Kind.Valid() && e.Amount.IsPositive()
}

// Validate checks an entry before it is appended. An empty status defaults to pending.
func (e *LedgerEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return domainerrors.Validation("userId is required")
	}
	if !e.Kind.Valid() {
		return domainerrors.Validation("unknown entry kind %q", e.Kind)
	}
	if !e.Amount.IsPositive() {
		return domainerrors.Validation("amount must be greater than zero")
	}
	if e.Status == "" {
		e.Status = EntryStatusPending
	}
	if !e.Status.Valid() {
		return domainerrors.Validation("unknown entry status %q", e.Status)
	}
	return nil
}

// CreateDepositInput represents input for a user deposit
type CreateDepositInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
	Method string          `json:"method" form:"method" binding:"required,max=32"`
}

// CreateWithdrawalInput represents input for a user withdrawal
type CreateWithdrawalInput struct {
	Amount   decimal.Decimal `json:"amount" binding:"required,dgt0"`
	Address  string          `json:"address" binding:"required,min=10,max=128"`
	Method   string          `json:"method" binding:"omitempty,max=32"`
	Password string          `json:"password" binding:"required"`
}

// CreditInput represents an admin credit of profit or bonus
type CreditInput struct {
	UserID uuid.UUID       `json:"userId" binding:"required"`
	Kind   EntryKind       `json:"kind" binding:"required,oneof=profit bonus"`
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
	Note   string          `json:"note" binding:"max=255"`
}

// UpdateEntryStatusInput represents an admin approve/reject
type UpdateEntryStatusInput struct {
	Status EntryStatus `json:"status" binding:"required,oneof=completed failed"`
}

// DepositResult is returned after a deposit request is recorded
type DepositResult struct {
	EntryID       uuid.UUID   `json:"entryId"`
	Status        EntryStatus `json:"status"`
	WalletAddress string      `json:"walletAddress"`
}

// CreatePaymentIntentInput is a card deposit request in USD
type CreatePaymentIntentInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
}

// PaymentIntentResult carries what the client needs to confirm a card payment
type PaymentIntentResult struct {
	EntryID         uuid.UUID       `json:"entryId"`
	PaymentIntentID string          `json:"paymentIntentId"`
	ClientSecret    string          `json:"clientSecret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}
