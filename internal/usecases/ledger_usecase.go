package usecases

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/crypto"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/metrics"
	"cryptovest.backend/pkg/utils"
)

// DefaultHistoryLimit is used when a history request names no limit.
const DefaultHistoryLimit = 50

// DefaultReceiptMaxBytes caps receipt uploads when no limit is configured.
const DefaultReceiptMaxBytes int64 = 5 << 20

var receiptContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// LedgerOptions holds ledger policy settings
type LedgerOptions struct {
	DepositAddresses map[string]string
	RejectOverdraft  bool
	HistoryLimit     int
	ReceiptMaxBytes  int64
}

// ReceiptUpload is a deposit receipt attached to a deposit request
type ReceiptUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// LedgerUsecase handles deposits, withdrawals and entry administration
type LedgerUsecase struct {
	ledgerRepo   repositories.LedgerRepository
	positionRepo repositories.InvestmentRepository
	userRepo     repositories.UserRepository
	receipts     repositories.ReceiptStorage
	opts         LedgerOptions
}

// NewLedgerUsecase creates a new ledger usecase
func NewLedgerUsecase(
	ledgerRepo repositories.LedgerRepository,
	positionRepo repositories.InvestmentRepository,
	userRepo repositories.UserRepository,
	receipts repositories.ReceiptStorage,
	opts LedgerOptions,
) *LedgerUsecase {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.ReceiptMaxBytes <= 0 {
		opts.ReceiptMaxBytes = DefaultReceiptMaxBytes
	}
	return &LedgerUsecase{
		ledgerRepo:   ledgerRepo,
		positionRepo: positionRepo,
		userRepo:     userRepo,
		receipts:     receipts,
		opts:         opts,
	}
}

// Deposit records a pending deposit and returns the platform address to send funds to
func (u *LedgerUsecase) Deposit(ctx context.Context, userID uuid.UUID, input *entities.CreateDepositInput, receipt *ReceiptUpload) (*entities.DepositResult, error) {
	method := strings.ToLower(strings.TrimSpace(input.Method))
	address, ok := u.opts.DepositAddresses[method]
	if !ok || address == "" {
		return nil, domainerrors.Validation("unsupported deposit method %q", input.Method)
	}

	entry := &entities.LedgerEntry{
		ID:     utils.GenerateUUIDv7(),
		UserID: userID,
		Kind:   entities.EntryKindDeposit,
		Amount: input.Amount,
		Method: method,
		Status: entities.EntryStatusPending,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	var receiptKey string
	if receipt != nil {
		key, ref, err := u.saveReceipt(ctx, userID, entry.ID, receipt)
		if err != nil {
			return nil, err
		}
		receiptKey = key
		entry.ReceiptRef = null.StringFrom(ref)
	}

	if err := u.ledgerRepo.Append(ctx, entry); err != nil {
		if receiptKey != "" {
			// nothing references the receipt without its entry
			if delErr := u.receipts.Delete(ctx, receiptKey); delErr != nil {
				logger.Warn(ctx, "Failed to remove orphaned receipt", zap.String("key", receiptKey), zap.Error(delErr))
			}
		}
		return nil, err
	}
	metrics.RecordEntryAppended(string(entry.Kind), string(entry.Status))
	logger.Info(ctx, "Deposit recorded",
		zap.String("entryId", entry.ID.String()),
		zap.String("method", method),
		zap.String("amount", entry.Amount.String()),
	)

	return &entities.DepositResult{
		EntryID:       entry.ID,
		Status:        entry.Status,
		WalletAddress: address,
	}, nil
}

// saveReceipt stores the upload and returns its storage key and reference.
func (u *LedgerUsecase) saveReceipt(ctx context.Context, userID, entryID uuid.UUID, receipt *ReceiptUpload) (string, string, error) {
	if u.receipts == nil {
		return "", "", domainerrors.Validation("receipt uploads are not enabled")
	}
	ext := strings.ToLower(filepath.Ext(receipt.Filename))
	contentType, ok := receiptContentTypes[ext]
	if !ok {
		return "", "", domainerrors.Validation("receipt must be a jpeg, png or pdf file")
	}
	if receipt.Size <= 0 || receipt.Size > u.opts.ReceiptMaxBytes {
		return "", "", domainerrors.Validation("receipt must be between 1 byte and %d bytes", u.opts.ReceiptMaxBytes)
	}

	key := fmt.Sprintf("receipts/%s/%s%s", userID, entryID, ext)
	ref, err := u.receipts.Save(ctx, key, contentType, receipt.Body, receipt.Size)
	if err != nil {
		return "", "", fmt.Errorf("failed to store receipt: %w", err)
	}
	return key, ref, nil
}

// Withdraw records a pending withdrawal after re-checking the user's password
func (u *LedgerUsecase) Withdraw(ctx context.Context, userID uuid.UUID, input *entities.CreateWithdrawalInput) (*entities.LedgerEntry, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	method := strings.ToLower(strings.TrimSpace(input.Method))
	if method == "" {
		method = entities.MethodCrypto
	}
	address := strings.TrimSpace(input.Address)
	if entities.IsEVMMethod(method) && !common.IsHexAddress(address) {
		return nil, domainerrors.Validation("invalid %s address", method)
	}

	if u.opts.RejectOverdraft {
		if err := u.checkAvailable(ctx, userID, input); err != nil {
			return nil, err
		}
	}

	entry := &entities.LedgerEntry{
		UserID:  userID,
		Kind:    entities.EntryKindWithdraw,
		Amount:  input.Amount,
		Method:  method,
		Status:  entities.EntryStatusPending,
		Address: null.StringFrom(address),
	}
	if err := u.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	metrics.RecordEntryAppended(string(entry.Kind), string(entry.Status))
	logger.Info(ctx, "Withdrawal requested", zap.String("entryId", entry.ID.String()), zap.String("amount", entry.Amount.String()))
	return entry, nil
}

// checkAvailable rejects a withdrawal larger than the liquid balance minus withdrawals still pending.
func (u *LedgerUsecase) checkAvailable(ctx context.Context, userID uuid.UUID, input *entities.CreateWithdrawalInput) error {
	entries, err := u.ledgerRepo.ListByUser(ctx, userID, 0)
	if err != nil {
		return err
	}
	positions, err := u.positionRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	available := ComputeDashboard(ctx, entries, positions).Balance
	for _, e := range entries {
		if e.Kind == entities.EntryKindWithdraw && e.Status == entities.EntryStatusPending {
			available = available.Sub(e.Amount)
		}
	}
	if input.Amount.GreaterThan(available) {
		return domainerrors.ErrInsufficientFunds
	}
	return nil
}

// History returns a user's most recent entries. A non-positive limit uses the configured default.
func (u *LedgerUsecase) History(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error) {
	if limit <= 0 {
		limit = u.opts.HistoryLimit
	}
	return u.ledgerRepo.ListByUser(ctx, userID, limit)
}

// ListAll returns a page of all entries, optionally filtered by status
func (u *LedgerUsecase) ListAll(ctx context.Context, status *entities.EntryStatus, pagination utils.PaginationParams) ([]*entities.LedgerEntry, utils.PaginationMeta, error) {
	if status != nil && !status.Valid() {
		return nil, utils.PaginationMeta{}, domainerrors.Validation("unknown entry status %q", *status)
	}
	entries, total, err := u.ledgerRepo.ListPage(ctx, status, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return entries, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// Transition approves or rejects a pending entry
func (u *LedgerUsecase) Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error) {
	entry, err := u.ledgerRepo.Transition(ctx, id, status)
	if err != nil {
		return nil, err
	}
	metrics.RecordEntryTransition(string(entry.Kind), string(entry.Status))
	logger.Info(ctx, "Ledger entry transitioned",
		zap.String("entryId", entry.ID.String()),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

// Credit books a completed profit or bonus entry for a user
func (u *LedgerUsecase) Credit(ctx context.Context, input *entities.CreditInput) (*entities.LedgerEntry, error) {
	if input.Kind != entities.EntryKindProfit && input.Kind != entities.EntryKindBonus {
		return nil, domainerrors.Validation("only profit or bonus can be credited")
	}
	if _, err := u.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	entry := &entities.LedgerEntry{
		UserID: input.UserID,
		Kind:   input.Kind,
		Amount: input.Amount,
		Method: entities.MethodSystem,
		Status: entities.EntryStatusCompleted,
	}
	if err := u.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	metrics.RecordEntryAppended(string(entry.Kind), string(entry.Status))
	logger.Info(ctx, "Credited user",
		zap.String("entryId", entry.ID.String()),
		zap.String("kind", string(entry.Kind)),
		zap.String("note", input.Note),
	)
	return entry, nil
}
