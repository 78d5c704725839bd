package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/usecases"
	"cryptovest.backend/pkg/crypto"
	"cryptovest.backend/pkg/utils"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	crypto.SetCost(bcrypt.MinCost)
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func newLedgerUsecaseForTest(ledgerRepo *MockLedgerRepository, positionRepo *MockInvestmentRepository, userRepo *MockUserRepository, receipts *MockReceiptStorage, opts usecases.LedgerOptions) *usecases.LedgerUsecase {
	if opts.DepositAddresses == nil {
		opts.DepositAddresses = map[string]string{
			entities.MethodBitcoin:  "bc1qplatform",
			entities.MethodEthereum: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		}
	}
	return usecases.NewLedgerUsecase(ledgerRepo, positionRepo, userRepo, receipts, opts)
}

func TestLedgerUsecase_Deposit(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	userID := uuid.New()

	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.UserID == userID && e.Kind == entities.EntryKindDeposit && e.Method == entities.MethodBitcoin &&
			e.Status == entities.EntryStatusPending && e.Amount.Equal(dec("5000")) && e.ID != uuid.Nil
	})).Return(nil).Once()

	res, err := uc.Deposit(context.Background(), userID, &entities.CreateDepositInput{Amount: dec("5000"), Method: "Bitcoin"}, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusPending, res.Status)
	assert.Equal(t, "bc1qplatform", res.WalletAddress)
	assert.NotEqual(t, uuid.Nil, res.EntryID)
	ledgerRepo.AssertExpectations(t)
}

func TestLedgerUsecase_Deposit_UnsupportedMethod(t *testing.T) {
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	_, err := uc.Deposit(context.Background(), uuid.New(), &entities.CreateDepositInput{Amount: dec("10"), Method: "usdc"}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Deposit_NonPositiveAmount(t *testing.T) {
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	_, err := uc.Deposit(context.Background(), uuid.New(), &entities.CreateDepositInput{Amount: dec("0"), Method: "bitcoin"}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Deposit_WithReceipt(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	receipts := new(MockReceiptStorage)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), receipts, usecases.LedgerOptions{})
	userID := uuid.New()

	receipts.On("Save", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "receipts/"+userID.String()+"/") && strings.HasSuffix(key, ".png")
	}), "image/png", mock.Anything, int64(4)).Return("s3://bucket/receipt.png", nil).Once()
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.ReceiptRef.Valid && e.ReceiptRef.String == "s3://bucket/receipt.png"
	})).Return(nil).Once()

	_, err := uc.Deposit(context.Background(), userID, &entities.CreateDepositInput{Amount: dec("10"), Method: "ethereum"},
		&usecases.ReceiptUpload{Filename: "Proof.PNG", Size: 4, Body: strings.NewReader("data")})
	require.NoError(t, err)
	receipts.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
}

func TestLedgerUsecase_Deposit_RemovesReceiptWhenAppendFails(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	receipts := new(MockReceiptStorage)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), receipts, usecases.LedgerOptions{})
	userID := uuid.New()

	var savedKey string
	receipts.On("Save", mock.Anything, mock.MatchedBy(func(key string) bool {
		savedKey = key
		return strings.HasPrefix(key, "receipts/"+userID.String()+"/")
	}), "application/pdf", mock.Anything, int64(3)).Return("s3://bucket/receipt.pdf", nil).Once()
	ledgerRepo.On("Append", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	receipts.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool { return key == savedKey })).Return(nil).Once()

	_, err := uc.Deposit(context.Background(), userID, &entities.CreateDepositInput{Amount: dec("10"), Method: "bitcoin"},
		&usecases.ReceiptUpload{Filename: "proof.pdf", Size: 3, Body: strings.NewReader("pdf")})
	assert.ErrorContains(t, err, "connection reset")
	receipts.AssertExpectations(t)
}

func TestLedgerUsecase_Deposit_RejectsBadReceipts(t *testing.T) {
	receipts := new(MockReceiptStorage)
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), new(MockUserRepository), receipts, usecases.LedgerOptions{ReceiptMaxBytes: 10})
	input := &entities.CreateDepositInput{Amount: dec("10"), Method: "bitcoin"}

	_, err := uc.Deposit(context.Background(), uuid.New(), input, &usecases.ReceiptUpload{Filename: "x.exe", Size: 3, Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = uc.Deposit(context.Background(), uuid.New(), input, &usecases.ReceiptUpload{Filename: "x.pdf", Size: 11, Body: strings.NewReader("0123456789a")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	receipts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerUsecase_Deposit_ReceiptWithoutStorage(t *testing.T) {
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	_, err := uc.Deposit(context.Background(), uuid.New(), &entities.CreateDepositInput{Amount: dec("10"), Method: "bitcoin"},
		&usecases.ReceiptUpload{Filename: "a.jpg", Size: 1, Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Withdraw(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	userRepo := new(MockUserRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), userRepo, nil, usecases.LedgerOptions{})
	user := &entities.User{ID: uuid.New(), PasswordHash: mustHash(t, "Password123!")}

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Kind == entities.EntryKindWithdraw && e.Status == entities.EntryStatusPending &&
			e.Method == entities.MethodCrypto && e.Address.String == "bc1qdestination000"
	})).Return(nil).Once()

	got, err := uc.Withdraw(context.Background(), user.ID, &entities.CreateWithdrawalInput{
		Amount:   dec("500"),
		Address:  "bc1qdestination000",
		Password: "Password123!",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusPending, got.Status)
	ledgerRepo.AssertExpectations(t)
}

func TestLedgerUsecase_Withdraw_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	ledgerRepo := new(MockLedgerRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), userRepo, nil, usecases.LedgerOptions{})
	user := &entities.User{ID: uuid.New(), PasswordHash: mustHash(t, "Password123!")}
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, err := uc.Withdraw(context.Background(), user.ID, &entities.CreateWithdrawalInput{Amount: dec("1"), Address: "bc1qdestination000", Password: "nope"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestLedgerUsecase_Withdraw_InvalidEVMAddress(t *testing.T) {
	userRepo := new(MockUserRepository)
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), userRepo, nil, usecases.LedgerOptions{})
	user := &entities.User{ID: uuid.New(), PasswordHash: mustHash(t, "Password123!")}
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, err := uc.Withdraw(context.Background(), user.ID, &entities.CreateWithdrawalInput{
		Amount: dec("1"), Address: "0xnothex-address", Method: "usdt", Password: "Password123!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Withdraw_RejectOverdraft(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	positionRepo := new(MockInvestmentRepository)
	userRepo := new(MockUserRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, positionRepo, userRepo, nil, usecases.LedgerOptions{RejectOverdraft: true})
	user := &entities.User{ID: uuid.New(), PasswordHash: mustHash(t, "Password123!")}
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	ledgerRepo.On("ListByUser", mock.Anything, user.ID, 0).Return([]*entities.LedgerEntry{
		entry(entities.EntryKindDeposit, "1000", entities.EntryStatusCompleted),
		entry(entities.EntryKindWithdraw, "300", entities.EntryStatusPending),
	}, nil)
	positionRepo.On("ListByUser", mock.Anything, user.ID).Return([]*entities.InvestmentPosition{
		position("500", entities.PositionStatusActive),
	}, nil)

	input := &entities.CreateWithdrawalInput{Amount: dec("201"), Address: "bc1qdestination000", Password: "Password123!"}
	_, err := uc.Withdraw(context.Background(), user.ID, input)
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientFunds)

	ledgerRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	input.Amount = dec("200")
	_, err = uc.Withdraw(context.Background(), user.ID, input)
	assert.NoError(t, err)
}

func TestLedgerUsecase_History_DefaultLimit(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	userID := uuid.New()

	ledgerRepo.On("ListByUser", mock.Anything, userID, usecases.DefaultHistoryLimit).Return([]*entities.LedgerEntry{}, nil).Once()
	ledgerRepo.On("ListByUser", mock.Anything, userID, 5).Return([]*entities.LedgerEntry{}, nil).Once()

	_, err := uc.History(context.Background(), userID, 0)
	require.NoError(t, err)
	_, err = uc.History(context.Background(), userID, 5)
	require.NoError(t, err)
	ledgerRepo.AssertExpectations(t)
}

func TestLedgerUsecase_ListAll_Paginates(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	status := entities.EntryStatusPending
	last := entry(entities.EntryKindDeposit, "3", status)
	params := utils.GetPaginationParams(2, 2)
	ledgerRepo.On("ListPage", mock.Anything, &status, params).Return([]*entities.LedgerEntry{last}, int64(3), nil)

	page, meta, err := uc.ListAll(context.Background(), &status, params)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Same(t, last, page[0])
	assert.Equal(t, int64(3), meta.TotalCount)
	assert.Equal(t, 2, meta.TotalPages)
	ledgerRepo.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)

	bad := entities.EntryStatus("archived")
	_, _, err = uc.ListAll(context.Background(), &bad, utils.GetPaginationParams(1, 10))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Transition(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), new(MockUserRepository), nil, usecases.LedgerOptions{})
	id := uuid.New()

	ledgerRepo.On("Transition", mock.Anything, id, entities.EntryStatusCompleted).
		Return(&entities.LedgerEntry{ID: id, Kind: entities.EntryKindDeposit, Status: entities.EntryStatusCompleted}, nil).Once()
	ledgerRepo.On("Transition", mock.Anything, id, entities.EntryStatusCompleted).
		Return(nil, domainerrors.ErrInvalidTransition).Once()

	got, err := uc.Transition(context.Background(), id, entities.EntryStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusCompleted, got.Status)

	_, err = uc.Transition(context.Background(), id, entities.EntryStatusCompleted)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
}

func TestLedgerUsecase_Credit(t *testing.T) {
	ledgerRepo := new(MockLedgerRepository)
	userRepo := new(MockUserRepository)
	uc := newLedgerUsecaseForTest(ledgerRepo, new(MockInvestmentRepository), userRepo, nil, usecases.LedgerOptions{})
	userID := uuid.New()

	userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{ID: userID}, nil)
	ledgerRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return e.Kind == entities.EntryKindBonus && e.Status == entities.EntryStatusCompleted && e.Method == entities.MethodSystem
	})).Return(nil).Once()

	got, err := uc.Credit(context.Background(), &entities.CreditInput{UserID: userID, Kind: entities.EntryKindBonus, Amount: dec("25")})
	require.NoError(t, err)
	assert.Equal(t, entities.EntryStatusCompleted, got.Status)

	_, err = uc.Credit(context.Background(), &entities.CreditInput{UserID: userID, Kind: entities.EntryKindDeposit, Amount: dec("25")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLedgerUsecase_Credit_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	uc := newLedgerUsecaseForTest(new(MockLedgerRepository), new(MockInvestmentRepository), userRepo, nil, usecases.LedgerOptions{})
	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(nil, domainerrors.ErrNotFound)

	_, err := uc.Credit(context.Background(), &entities.CreditInput{UserID: userID, Kind: entities.EntryKindProfit, Amount: dec("1")})
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}
